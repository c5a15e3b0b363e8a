package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.RetrieverTopK != 3 {
		t.Errorf("RetrieverTopK = %d, want 3", cfg.RetrieverTopK)
	}
	if cfg.KBCoverageThreshold != 0.45 {
		t.Errorf("KBCoverageThreshold = %v, want 0.45", cfg.KBCoverageThreshold)
	}
	if cfg.CoveragePrefixChars != 1000 {
		t.Errorf("CoveragePrefixChars = %d, want 1000", cfg.CoveragePrefixChars)
	}
	if cfg.MaxPipelineRetries != 2 {
		t.Errorf("MaxPipelineRetries = %d, want 2", cfg.MaxPipelineRetries)
	}
	if cfg.LLMModel != "llama-3.3-70b-versatile" {
		t.Errorf("LLMModel = %q", cfg.LLMModel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("RETRIEVER_TOP_K", "7")
	t.Setenv("KB_COVERAGE_THRESHOLD", "0.6")
	t.Setenv("LLM_TEMPERATURE", "0.0")

	cfg := Load()
	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.RetrieverTopK != 7 {
		t.Errorf("RetrieverTopK = %d, want 7", cfg.RetrieverTopK)
	}
	if cfg.KBCoverageThreshold != 0.6 {
		t.Errorf("KBCoverageThreshold = %v, want 0.6", cfg.KBCoverageThreshold)
	}
	if cfg.LLMTemperature != 0.0 {
		t.Errorf("LLMTemperature = %v, want 0", cfg.LLMTemperature)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVER_TOP_K", "many")
	t.Setenv("KB_COVERAGE_THRESHOLD", "high")

	cfg := Load()
	if cfg.RetrieverTopK != 3 {
		t.Errorf("RetrieverTopK = %d, want fallback 3", cfg.RetrieverTopK)
	}
	if cfg.KBCoverageThreshold != 0.45 {
		t.Errorf("KBCoverageThreshold = %v, want fallback 0.45", cfg.KBCoverageThreshold)
	}
}
