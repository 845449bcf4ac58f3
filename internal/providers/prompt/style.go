package prompt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Styles a caller may request by name.
var knownStyles = map[string]string{
	"cinematic":   "cinematic lighting, shallow depth of field, film grain",
	"documentary": "natural lighting, handheld camera, realistic tones",
	"animated":    "3D animated, vibrant colors, smooth motion",
	"retro":       "VHS texture, muted palette, 1980s aesthetic",
}

// ApplyStyle appends a named visual style to a base prompt. Unknown styles
// are title-cased and appended verbatim so callers can pass free-form styles.
func ApplyStyle(basePrompt, style string) string {
	basePrompt = strings.TrimSpace(basePrompt)
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		return basePrompt
	}
	if desc, ok := knownStyles[style]; ok {
		return basePrompt + ". Style: " + desc + "."
	}
	titled := cases.Title(language.Und).String(style)
	return basePrompt + ". Style: " + titled + "."
}
