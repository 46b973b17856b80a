package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Pipeline.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.BudgetTokens != 4000 {
		t.Errorf("expected BudgetTokens=4000, got %d", cfg.Pipeline.BudgetTokens)
	}
	if cfg.Lexicon.Domain != "generic" {
		t.Errorf("expected Domain='generic', got %q", cfg.Lexicon.Domain)
	}
	if cfg.Audit.MaxEntries != 10000 {
		t.Errorf("expected MaxEntries=10000, got %d", cfg.Audit.MaxEntries)
	}
	if cfg.Provider.MaxTokens != 1024 {
		t.Errorf("expected MaxTokens=1024, got %d", cfg.Provider.MaxTokens)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Pipeline: PipelineConfig{TopK: 5, BudgetTokens: 2000},
		Lexicon:  LexiconConfig{Domain: "healthcare"},
	}
	cfg.ApplyDefaults()

	if cfg.Pipeline.TopK != 5 {
		t.Errorf("defaults overrode TopK: %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.BudgetTokens != 2000 {
		t.Errorf("defaults overrode BudgetTokens: %d", cfg.Pipeline.BudgetTokens)
	}
	if cfg.Lexicon.Domain != "healthcare" {
		t.Errorf("defaults overrode Domain: %q", cfg.Lexicon.Domain)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{Lexicon: LexiconConfig{Domain: "generic"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}

	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestValidate_InvalidLexiconDomain(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Lexicon: LexiconConfig{Domain: "astrology"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown lexicon domain")
	}
}

func TestValidate_Rules(t *testing.T) {
	base := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Lexicon: LexiconConfig{Domain: "healthcare"},
	}

	cfg := base
	cfg.Rules = []RuleConfig{{Trigger: "pediatric", Entity: "pediatric", Action: "boost", Amount: 1}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for rule without a name")
	}

	cfg = base
	cfg.Rules = []RuleConfig{{Name: "r", Trigger: "pediatric", Entity: "pediatric", Action: "demote"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown rule action")
	}

	cfg = base
	cfg.Rules = []RuleConfig{
		{Name: "peds", Trigger: "pediatric", Entity: "pediatric", Action: "boost", Amount: 2},
		{Name: "old", Trigger: "current", Entity: "deprecated", Action: "exclude"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for valid rules: %v", err)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Lexicon: LexiconConfig{Domain: "finance"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GL_TEST_PORT", "9090")

	in := []byte("port: ${GL_TEST_PORT}\nmodel: ${GL_TEST_MODEL:-gpt-4o-mini}\nkey: ${GL_TEST_UNSET}")
	out := string(expandEnvVars(in))

	want := "port: 9090\nmodel: gpt-4o-mini\nkey: "
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
