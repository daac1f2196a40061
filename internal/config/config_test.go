package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	env := ParseString("")
	app := Load(env, "/root")

	if app.Global.LogLevel != "info" {
		t.Fatalf("expected default log level 'info', got %q", app.Global.LogLevel)
	}
	if app.Generator.PubEndpoint != "tcp://127.0.0.1:5555" {
		t.Fatalf("expected default producer pub endpoint, got %q", app.Generator.PubEndpoint)
	}
	if app.Generator.InputDir != "/root/data/images" {
		t.Fatalf("expected relative path resolved against root, got %q", app.Generator.InputDir)
	}
	if app.Generator.QueueDepth != 100 {
		t.Fatalf("expected generator queue depth to fall back to extractor default of 100, got %d", app.Generator.QueueDepth)
	}
}

func TestLoadGeneratorQueueDepthFallsBackToExtractor(t *testing.T) {
	env := ParseString("FEATURE_EXTRACTOR_QUEUE_DEPTH=42\n")
	app := Load(env, "/root")

	if app.Generator.QueueDepth != 42 {
		t.Fatalf("expected generator queue depth to inherit extractor's configured value, got %d", app.Generator.QueueDepth)
	}
	if app.Extractor.QueueDepth != 42 {
		t.Fatalf("expected extractor queue depth 42, got %d", app.Extractor.QueueDepth)
	}
}

func TestLoadGeneratorQueueDepthOwnValueWins(t *testing.T) {
	env := ParseString("FEATURE_EXTRACTOR_QUEUE_DEPTH=42\nIMAGE_GENERATOR_QUEUE_DEPTH=7\n")
	app := Load(env, "/root")

	if app.Generator.QueueDepth != 7 {
		t.Fatalf("expected the generator's own setting to win over the fallback, got %d", app.Generator.QueueDepth)
	}
}

func TestLoadAbsolutePathIgnoresRoot(t *testing.T) {
	env := ParseString("IMAGE_GENERATOR_INPUT_DIR=/abs/images\n")
	app := Load(env, "/root")

	if app.Generator.InputDir != "/abs/images" {
		t.Fatalf("expected absolute path to pass through unchanged, got %q", app.Generator.InputDir)
	}
}

func TestLoadFallsBackOnUnparseableInt(t *testing.T) {
	env := ParseString("IMAGE_GENERATOR_LOOP_DELAY_MS=not-a-number\n")
	app := Load(env, "/root")

	if app.Generator.LoopDelayMS != 100 {
		t.Fatalf("expected fallback to default 100 on parse error, got %d", app.Generator.LoopDelayMS)
	}
}

func TestLoadFallsBackOnUnparseableFloat(t *testing.T) {
	env := ParseString("FEATURE_EXTRACTOR_SIFT_CONTRAST_THRESHOLD=nope\n")
	app := Load(env, "/root")

	if app.Extractor.SIFTContrastThreshold != 0.04 {
		t.Fatalf("expected fallback to default 0.04 on parse error, got %v", app.Extractor.SIFTContrastThreshold)
	}
}
