package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/voxdash/voxdash/internal/domain"
)

const (
	maxErrorLines = 2
	errorPrefix   = "Error: "
)

// formatErrorForDisplay renders an error payload for the status area.
// The message is word-wrapped to at most maxErrorLines and truncated
// with "..." when it does not fit; the first line carries the prefix.
func formatErrorForDisplay(payload *domain.ErrorPayload, maxWidth int) string {
	if payload == nil {
		return ""
	}
	message := payload.Message
	if message == "" {
		message = "unknown error"
	}

	width := maxWidth - utf8.RuneCountInString(errorPrefix)
	if width < 10 {
		width = 10
	}

	lines := wrapWords(message, width, maxErrorLines)
	if len(lines) == 0 {
		return errorPrefix + message
	}
	return errorPrefix + strings.Join(lines, "\n")
}

// wrapWords greedily wraps text into at most maxLines lines of the
// given rune width, marking truncation on the last line
func wrapWords(text string, width, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	consumed := 0

	for _, word := range words {
		if current.Len() > 0 &&
			utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, current.String())
			current.Reset()
			if len(lines) == maxLines {
				break
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
		consumed++
	}
	if current.Len() > 0 && len(lines) < maxLines {
		lines = append(lines, current.String())
		consumed = len(words)
	}

	if consumed < len(words) && len(lines) > 0 {
		last := lines[len(lines)-1]
		runes := []rune(last)
		if len(runes)+3 > width && len(runes) > 3 {
			runes = runes[:len(runes)-3]
		}
		lines[len(lines)-1] = string(runes) + "..."
	}
	return lines
}
