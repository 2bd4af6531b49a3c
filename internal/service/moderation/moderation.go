package moderation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Verdict is the outcome of an input check. Computed per call, never stored.
type Verdict struct {
	Allowed bool
	Reason  string
}

const (
	minLength = 2
	maxLength = 2000
)

// blockedPatterns is a cheap keyword screen, not semantic understanding.
// False negatives are expected; the hosted model's own safety layer is the
// real guard.
var blockedPatterns = []*regexp.Regexp{
	// Security exploitation.
	regexp.MustCompile(`(?i)\b(hack|exploit|attack|ddos|phishing)\b`),
	// Illegal goods.
	regexp.MustCompile(`(?i)\b(illegal|drugs|weapons)\b`),
	// Explicit adult content.
	regexp.MustCompile(`(?i)\b(explicit|nsfw|nude|porn)\b`),
	// Sensitive personal data.
	regexp.MustCompile(`(?i)\b(social security|ssn|credit card|bank account)\b`),
	// Violence.
	regexp.MustCompile(`(?i)\b(kill|murder|harm|hurt someone)\b`),
}

var (
	scriptBlocks = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	markupTags   = regexp.MustCompile(`<[^>]*>`)
)

// ModerateInput screens raw user text before it reaches the model.
func ModerateInput(text string) Verdict {
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		return Verdict{Reason: "Message cannot be empty."}
	}
	// Length limits are in characters, not bytes, so multibyte input is
	// measured the same as ASCII.
	length := utf8.RuneCountInString(trimmed)
	if length > maxLength {
		return Verdict{Reason: "Message is too long. Please keep it under 2000 characters."}
	}
	if length < minLength {
		return Verdict{Reason: "Message is too short. Please provide more context."}
	}

	for _, pattern := range blockedPatterns {
		if pattern.MatchString(trimmed) {
			return Verdict{Reason: "This message contains content that Ananya cannot discuss. Please rephrase your question."}
		}
	}

	return Verdict{Allowed: true}
}

// SanitizeOutput strips markup from model-generated text before display, so a
// prompt-injected model cannot smuggle executable markup to the browser.
// Markdown formatting passes through untouched.
func SanitizeOutput(text string) string {
	sanitized := scriptBlocks.ReplaceAllString(text, "")
	sanitized = markupTags.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(sanitized)
}
