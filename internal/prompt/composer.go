package prompt

import (
	"strings"

	"github.com/nerdworks/dealerai-backend/internal/settings"
)

// Composer modes selecting the task-specific instruction template.
const (
	ModeTextRewrite        = "text-rewrite"
	ModeTextCompletion     = "text-completion"
	ModeTextSummarization  = "text-summarization"
	ModeTextExpansion      = "text-expansion"
	ModeTextPrompt         = "text-prompt"
	ModeHTMLCode           = "html-code"
	ModeVehicleDescription = "vehicle-description"
	ModeVisionAnalysis     = "vision-analysis"
)

// Options carries the per-request prompt grounding blocks.
type Options struct {
	DealerInfo              string
	DealerAdditionalContext string
	VehicleInfo             string
}

// Fragment builders are pure: empty input yields the empty string so missing
// settings degrade silently instead of leaking labels.

func BuildPersona(persona string) string {
	if persona == "" {
		return ""
	}
	return "This is your persona and it defines your characteristic: " + persona + ". "
}

func BuildContext(context string) string {
	if context == "" {
		return ""
	}
	return "### CONTEXT: ### \n This is the context you should be aware of but you are not required to repeat it in your response: " + context + ". "
}

func BuildIntonation(intonation string) string {
	if intonation == "" {
		return ""
	}
	return "Your prompt should be in '" + intonation + "' intonation. "
}

func BuildLanguage(language string) string {
	if language == "" {
		return ""
	}
	return "### LANGUAGE: ### \n When responding, your reply should be in '" + language + "' language. \n"
}

func BuildDealerInformation(dealerInfo string) string {
	if dealerInfo == "" {
		return ""
	}
	return "### DEALER INFORMATION: ### \n This is all the information about the car dealership you will impersonate: " + dealerInfo + ". \n"
}

func BuildDealerContext(dealerContext string) string {
	if dealerContext == "" {
		return ""
	}
	return "### DEALER ADDITIONAL CONTEXT: ### \n This is additional context provided by the dealership manager, please consider this information with the utmost priority: " + dealerContext + ". \n"
}

func BuildVehicleInfo(vehicleInfo string) string {
	if vehicleInfo == "" {
		return ""
	}
	return "### VEHICLE INFORMATION: ### \n This is the vehicle information for you to create the description: \n" + vehicleInfo + ". \n"
}

// Composer assembles the final prompt from ordered, independently toggleable
// fragments followed by the mode's instruction template and the raw value.
type Composer struct {
	cfg settings.Provider

	includePersona    bool
	includeContext    bool
	includeIntonation bool
	includeLanguage   bool
}

func NewComposer(cfg settings.Provider) *Composer {
	return &Composer{
		cfg:               cfg,
		includePersona:    true,
		includeContext:    true,
		includeIntonation: true,
		includeLanguage:   true,
	}
}

func (c *Composer) WithoutPersona() *Composer {
	c.includePersona = false
	return c
}

func (c *Composer) WithoutContext() *Composer {
	c.includeContext = false
	return c
}

func (c *Composer) WithoutIntonation() *Composer {
	c.includeIntonation = false
	return c
}

func (c *Composer) WithoutLanguage() *Composer {
	c.includeLanguage = false
	return c
}

type fragment struct {
	enabled bool
	build   func() string
}

// Compose concatenates the enabled fragments in their fixed order, then the
// template for mode, then the raw value verbatim. Unknown modes fall back to
// the assembled fragments with the raw value appended; that permissive default
// mirrors how unmatched modes have always behaved here.
func (c *Composer) Compose(value, mode string, opts Options) string {
	fragments := []fragment{
		{c.includePersona, func() string { return BuildPersona(c.cfg.Get(settings.KeyPersona)) }},
		{c.includeContext, func() string { return BuildContext(c.cfg.Get(settings.KeyContext)) }},
		{c.includeIntonation, func() string { return BuildIntonation(c.cfg.Get(settings.KeyIntonation)) }},
		{c.includeLanguage, func() string { return BuildLanguage(c.cfg.Get(settings.KeyLanguage)) }},
		{true, func() string { return BuildDealerInformation(opts.DealerInfo) }},
		{true, func() string { return BuildDealerContext(opts.DealerAdditionalContext) }},
		{true, func() string { return BuildVehicleInfo(opts.VehicleInfo) }},
	}

	var b strings.Builder
	for _, f := range fragments {
		if !f.enabled {
			continue
		}
		b.WriteString(f.build())
	}
	b.WriteString(Template(mode))
	b.WriteString(value)
	return b.String()
}

// ComposeVision builds the vision variant: the regular composition plus an
// image-analysis instruction suffix.
func (c *Composer) ComposeVision(value string, opts Options) string {
	return c.Compose(value, ModeVisionAnalysis, opts) + " Analyse this image and provide detailed observations."
}

// Template returns the instruction text for a composer mode. Unmatched modes
// yield the empty string so the raw value passes through unchanged.
func Template(mode string) string {
	switch mode {
	case ModeTextRewrite:
		return "Without repeating or explaining your persona, please rephrase the following sentence while keeping the word count approximately the same: "
	case ModeTextCompletion:
		return "Without repeating or explaining your persona, complete the sentence: "
	case ModeTextSummarization:
		return "Without repeating or explaining your persona, please summarize the following sentences into a much shorter result: "
	case ModeTextExpansion:
		return "Without repeating or explaining your persona, please further elaborate on these sentences: "
	case ModeTextPrompt:
		return "Without repeating or explaining your persona, please respond to the following: "
	case ModeHTMLCode:
		return "Without repeating or explaining your persona, without the <html>, <head>, <body> sections or any unnecessary tags, please generate SEO and accessibility friendly HTML code for the following: "
	default:
		return ""
	}
}
