package envelope

import (
	"encoding/json"
	"fmt"
)

// Fields is a permissive view over a JSON header object, used by
// receivers that must tolerate headers missing keys a newer sender
// added: senders always emit the full schema, but receivers must
// tolerate older headers lacking new fields.
type Fields map[string]any

// ParseFields decodes a JSON object header. A malformed payload (not a
// JSON object) is the one case callers must treat as "drop with a
// warning" rather than apply defaults to.
func ParseFields(data []byte) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse header json: %w", err)
	}
	return fields, nil
}

// String returns fields[key] as a string, or def if absent or of the
// wrong type.
func (f Fields) String(key, def string) string {
	v, ok := f[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Int returns fields[key] as an int, or def if absent or not numeric.
// JSON numbers decode to float64 via encoding/json's default map
// decoding, so truncation here mirrors nlohmann::json's integer coercion.
func (f Fields) Int(key string, def int) int {
	v, ok := f[key]
	if !ok {
		return def
	}
	n, ok := v.(float64)
	if !ok {
		return def
	}
	return int(n)
}

// Uint64 returns fields[key] as a uint64, or def if absent or not
// numeric. Used for keypoint_count, which is an unsigned 64-bit value.
func (f Fields) Uint64(key string, def uint64) uint64 {
	v, ok := f[key]
	if !ok {
		return def
	}
	n, ok := v.(float64)
	if !ok || n < 0 {
		return def
	}
	return uint64(n)
}

// Object returns fields[key] as a nested Fields, or an empty Fields if
// absent or not an object (mirrors header.value("source",
// nlohmann::json::object())).
func (f Fields) Object(key string) Fields {
	v, ok := f[key]
	if !ok {
		return Fields{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Fields{}
	}
	return Fields(m)
}
