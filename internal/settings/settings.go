package settings

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ErrMissingAPIKey is returned before any vendor call is attempted when no API
// key is configured.
var ErrMissingAPIKey = errors.New("openai api key is not set")

// Setting keys shared across the prompt composer, model client and tasks.
const (
	KeyAPIKey       = "openai_api_key"
	KeyOrganization = "openai_api_organization"
	KeyModel        = "openai_model"
	KeyMaxTokens    = "openai_api_max_token"
	KeyPersona      = "persona"
	KeyContext      = "context"
	KeyIntonation   = "intonation"
	KeyLanguage     = "language"

	// Scoring rubric templates are configurable; defaults live in the scorer.
	KeyScoringPromptTemplate    = "scoring_prompt_template"
	KeyScoringRelevancyTemplate = "scoring_relevancy_template"

	// Localized boolean rendering for formatted vehicle data.
	KeyBoolTrue  = "bool_true_label"
	KeyBoolFalse = "bool_false_label"
)

// Provider is the key-value settings boundary. Implementations return the empty
// string for unset keys; callers degrade rather than error on missing values,
// except for the API key which is checked explicitly.
type Provider interface {
	Get(key string) string
}

// GetInt reads a setting as an int, falling back to def when unset or malformed.
func GetInt(p Provider, key string, def int) int {
	v := strings.TrimSpace(p.Get(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// GetDefault reads a setting with a fallback default.
func GetDefault(p Provider, key, def string) string {
	v := strings.TrimSpace(p.Get(key))
	if v == "" {
		return def
	}
	return v
}

// RequireAPIKey fails fast with ErrMissingAPIKey when no key is configured.
func RequireAPIKey(p Provider) (string, error) {
	key := strings.TrimSpace(p.Get(KeyAPIKey))
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// EnvProvider resolves setting keys from environment variables, upper-cased
// (persona -> PERSONA, openai_api_key -> OPENAI_API_KEY).
type EnvProvider struct{}

func (EnvProvider) Get(key string) string {
	return strings.TrimSpace(os.Getenv(strings.ToUpper(key)))
}

// Static is a fixed in-memory provider, used in tests and for embedding
// per-request overrides.
type Static map[string]string

func (s Static) Get(key string) string {
	return s[key]
}
