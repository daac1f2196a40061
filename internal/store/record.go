package store

// Record is one row of the frames table, bound positionally in the
// exact order of insertSQL.
type Record struct {
	FrameID             int
	LoopIteration       int
	SourceTimestamp     string
	ProcessedTimestamp  string
	Filename            string
	Width               int
	Height              int
	Channels            int
	Encoding            string
	KeypointCount       uint64
	DescriptorRows      int
	DescriptorCols      int
	DescriptorElemSize  int
	DescriptorType      int
	DescriptorsBytes    int
	ImagePath           string
	MetadataJSON        string
	Descriptors         []byte // nil binds as a null blob
	CreatedAt           string
}

// Insert writes one row. A nil/empty Descriptors slice binds as NULL,
// matching the original's sqlite3_bind_blob(..., nullptr, 0, ...) path
// for frames with no descriptor data.
func (s *Store) Insert(r Record) error {
	var descriptors any
	if len(r.Descriptors) > 0 {
		descriptors = r.Descriptors
	}

	_, err := s.insert.Exec(
		r.FrameID,
		r.LoopIteration,
		r.SourceTimestamp,
		r.ProcessedTimestamp,
		r.Filename,
		r.Width,
		r.Height,
		r.Channels,
		r.Encoding,
		r.KeypointCount,
		r.DescriptorRows,
		r.DescriptorCols,
		r.DescriptorElemSize,
		r.DescriptorType,
		r.DescriptorsBytes,
		r.ImagePath,
		r.MetadataJSON,
		descriptors,
		r.CreatedAt,
	)
	return err
}
