package settings

import (
	"errors"
	"testing"
)

func TestRequireAPIKey(t *testing.T) {
	if _, err := RequireAPIKey(Static{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("want ErrMissingAPIKey, got %v", err)
	}

	key, err := RequireAPIKey(Static{KeyAPIKey: "sk-abc"})
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if key != "sk-abc" {
		t.Fatalf("key: %q", key)
	}
}

func TestGetDefault(t *testing.T) {
	cfg := Static{KeyModel: "gpt-4o-mini"}
	if got := GetDefault(cfg, KeyModel, "gpt-4o"); got != "gpt-4o-mini" {
		t.Fatalf("set key: %q", got)
	}
	if got := GetDefault(cfg, KeyPersona, "fallback"); got != "fallback" {
		t.Fatalf("missing key: %q", got)
	}
}

func TestGetInt(t *testing.T) {
	cfg := Static{KeyMaxTokens: "250"}
	if got := GetInt(cfg, KeyMaxTokens, 1000); got != 250 {
		t.Fatalf("parsed: %d", got)
	}
	if got := GetInt(Static{KeyMaxTokens: "abc"}, KeyMaxTokens, 1000); got != 1000 {
		t.Fatalf("unparseable must fall back: %d", got)
	}
	if got := GetInt(Static{}, KeyMaxTokens, 1000); got != 1000 {
		t.Fatalf("missing must fall back: %d", got)
	}
}

func TestEnvProviderUpperCases(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	if got := (EnvProvider{}).Get(KeyAPIKey); got != "sk-env" {
		t.Fatalf("env provider: %q", got)
	}
}
