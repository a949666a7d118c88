package shared

import (
	"regexp"
	"strings"
)

// Message derives an issue message from the line that opened it.
// The message is the text following the start marker (ending at offset), stripped of separators.
// When nothing follows the marker, the whole trimmed line is used.
func Message(line string, offset int) string {
	msg := ""
	if offset >= 0 && offset <= len(line) {
		msg = strings.TrimLeft(line[offset:], " \t:-]|>")
		msg = strings.TrimSpace(msg)
	}

	if msg == "" {
		msg = strings.TrimSpace(line)
	}

	return truncate(msg, MaxMessageRunes)
}

// FrameFragment returns the stack frame found in text, if any.
func FrameFragment(frame *regexp.Regexp, text string) (string, bool) {
	match := frame.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	fragment := match[0]
	if len(match) > 1 && match[1] != "" {
		fragment = match[1]
	}

	return strings.TrimSpace(fragment), true
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit-1]) + "…"
}

// Summary trims text and caps it to MaxMessageRunes.
func Summary(text string) string {
	return truncate(strings.TrimSpace(text), MaxMessageRunes)
}
