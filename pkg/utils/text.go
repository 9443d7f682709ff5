package utils

import (
	"strings"
	"unicode"
)

const (
	DefaultChatTitle  = "New Chat"
	UntitledChatLabel = "Untitled chat"
	EmptyChatPreview  = "Start a conversation"

	titleMaxRunes = 20
)

// TitleFromPrompt derives a chat title from the first prompt: the first 20
// characters, or the default title when the prompt is blank.
func TitleFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return DefaultChatTitle
	}
	runes := []rune(prompt)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	return strings.TrimSpace(string(runes))
}

// Ellipsize shortens s to at most max characters, ending with "…" when cut.
func Ellipsize(s string, max int) string {
	runes := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// DisplayTitle is the title shown in chat lists.
func DisplayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UntitledChatLabel
	}
	return title
}

// DisplayNameFromEmail builds a readable name from the local part of an
// address: "jane.doe+news@x.io" becomes "Jane Doe News".
func DisplayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	names := make([]string, 0, 3)
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		names = append(names, capitalize(strings.ToLower(p)))
		if len(names) == 3 {
			break
		}
	}
	if len(names) == 0 {
		return email
	}
	return strings.Join(names, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToTitle(runes[0])
	return string(runes)
}
