package config

import (
	"strings"
	"testing"
)

// --- Default Config Tests ---

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefaultConfigHasRules(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Extract.Rules) == 0 {
		t.Fatal("default config should carry extraction rules")
	}
	for _, want := range []string{"name", "description", "features", "support_email"} {
		if _, ok := cfg.Extract.Rule(want); !ok {
			t.Errorf("expected default rule %q", want)
		}
	}
}

func TestRuleLookupMiss(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := cfg.Extract.Rule("no_such_field"); ok {
		t.Error("expected miss for unknown rule name")
	}
}

// --- Validate Tests ---

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Site.BaseURL = "ftp://example.com"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for non-http base URL")
	}
}

func TestValidateRejectsEmptyCheckpointPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.CheckpointPath = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected error for empty checkpoint path")
	}
}

func TestValidateRejectsNegativeRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.MaxRetries = -1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative max_retries")
	}
}

func TestValidateRejectsRuleWithoutSelector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extract.Rules = append(cfg.Extract.Rules, FieldRule{Name: "broken"})
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for rule without selectors")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the rule, got: %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestValidateMongoRequiresURI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Mongo.Enabled = true
	cfg.Storage.Mongo.URI = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected error for enabled mongo without URI")
	}
}

func TestValidateAIProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Enabled = true
	cfg.AI.Provider = "carrier-pigeon"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unknown AI provider")
	}
}

// --- ValidateURL Tests ---

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/tools"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if err := ValidateURL("not a url at all"); err == nil {
		t.Error("expected error for garbage URL")
	}
	if err := ValidateURL("file:///etc/passwd"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

// --- Load Tests ---

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load without config file should succeed, got: %v", err)
	}
	if cfg.Site.BaseURL == "" {
		t.Error("defaults should be populated")
	}
	if len(cfg.Extract.Rules) == 0 {
		t.Error("rules should be populated")
	}
}
