// Package config loads the shared dotenv file and resolves it into the
// strongly typed structs each binary consumes, porting
// dist::common::load_app_config's default/fallback chain into Go.
package config

import (
	"path/filepath"
	"strconv"
)

// Global holds process-wide tuning knobs.
type Global struct {
	LogLevel string
}

// Generator holds parameters consumed by cmd/image-generator.
type Generator struct {
	InputDir          string
	LoopDelayMS       int
	StartDelayMS      int
	SubscriberWaitMS  int
	PubEndpoint       string
	HeartbeatMS       int
	QueueDepth        int
}

// Extractor holds parameters consumed by cmd/feature-extractor.
type Extractor struct {
	SubEndpoint           string
	PubEndpoint           string
	SIFTNFeatures         int
	SIFTContrastThreshold float64
	SIFTEdgeThreshold     float64
	QueueDepth            int
}

// Logger holds parameters consumed by cmd/data-logger.
type Logger struct {
	SubEndpoint     string
	DBPath          string
	RawImageDir     string
	AnnotatedDir    string
}

// App is the full configuration tree shared by all three binaries.
type App struct {
	Global    Global
	Generator Generator
	Extractor Extractor
	Logger    Logger
}

// Load applies each setting's default, resolving relative paths
// against root and falling back to defaults on unparseable integers —
// exactly as the C++ to_int/to_double helpers do.
func Load(env *Env, root string) App {
	var cfg App

	cfg.Global.LogLevel = env.GetOr("APP_LOG_LEVEL", "info")

	cfg.Generator.InputDir = toPath(env, "IMAGE_GENERATOR_INPUT_DIR", "./data/images", root)
	cfg.Generator.LoopDelayMS = toInt(env, "IMAGE_GENERATOR_LOOP_DELAY_MS", 100)
	cfg.Generator.StartDelayMS = toInt(env, "IMAGE_GENERATOR_START_DELAY_MS", 500)
	cfg.Generator.SubscriberWaitMS = toInt(env, "IMAGE_GENERATOR_SUBSCRIBER_WAIT_MS", 1000)
	cfg.Generator.PubEndpoint = env.GetOr("IMAGE_GENERATOR_PUB_ENDPOINT", "tcp://127.0.0.1:5555")
	cfg.Generator.HeartbeatMS = toInt(env, "IMAGE_GENERATOR_HEARTBEAT_MS", 2000)
	// The generator's own queue depth falls back to the extractor's
	// setting before the hardcoded default, matching load_app_config's
	// chained fallback.
	extractorQueueFallback := toInt(env, "FEATURE_EXTRACTOR_QUEUE_DEPTH", 100)
	cfg.Generator.QueueDepth = toInt(env, "IMAGE_GENERATOR_QUEUE_DEPTH", extractorQueueFallback)

	cfg.Extractor.SubEndpoint = env.GetOr("FEATURE_EXTRACTOR_SUB_ENDPOINT", "tcp://127.0.0.1:5555")
	cfg.Extractor.PubEndpoint = env.GetOr("FEATURE_EXTRACTOR_PUB_ENDPOINT", "tcp://127.0.0.1:5556")
	cfg.Extractor.SIFTNFeatures = toInt(env, "FEATURE_EXTRACTOR_SIFT_N_FEATURES", 0)
	cfg.Extractor.SIFTContrastThreshold = toFloat(env, "FEATURE_EXTRACTOR_SIFT_CONTRAST_THRESHOLD", 0.04)
	cfg.Extractor.SIFTEdgeThreshold = toFloat(env, "FEATURE_EXTRACTOR_SIFT_EDGE_THRESHOLD", 10.0)
	cfg.Extractor.QueueDepth = toInt(env, "FEATURE_EXTRACTOR_QUEUE_DEPTH", 100)

	cfg.Logger.SubEndpoint = env.GetOr("DATA_LOGGER_SUB_ENDPOINT", "tcp://127.0.0.1:5556")
	cfg.Logger.DBPath = toPath(env, "DATA_LOGGER_DB_PATH", "./storage/dist_imaging.sqlite", root)
	cfg.Logger.RawImageDir = toPath(env, "DATA_LOGGER_RAW_IMAGE_DIR", "./storage/raw_frames", root)
	cfg.Logger.AnnotatedDir = toPath(env, "DATA_LOGGER_ANNOTATED_DIR", "./storage/annotated_frames", root)

	return cfg
}

func toInt(env *Env, key string, fallback int) int {
	v, ok := env.Get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func toFloat(env *Env, key string, fallback float64) float64 {
	v, ok := env.Get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func toPath(env *Env, key, fallback, root string) string {
	v, ok := env.Get(key)
	if !ok {
		v = fallback
	}
	if filepath.IsAbs(v) {
		return v
	}
	return filepath.Join(root, v)
}
