package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	headerLine      = regexp.MustCompile(`(?i)^(from|to|cc|bcc|subject|date|sent|reply-to|received|content-[a-z-]+|x-[a-z0-9-]+|dkim-signature|return-path|message-id|mime-version):\s`)
	separatorLine   = regexp.MustCompile(`^[_\-=]{3,}$`)
	boilerplateLine = regexp.MustCompile(`(?i)^(sent from my\b|get outlook for\b|this (e-?mail|message)( and any attachments)? (is|are|may be|may contain) (confidential|privileged)|confidentiality notice)`)
	attributionLine = regexp.MustCompile(`(?i)^on\s.+\swrote:$`)
	blankRun        = regexp.MustCompile(`\n{3,}`)
)

// Cleanup strips mail noise from text: header-like lines, signatures,
// separators, boilerplate and quoted replies. When less than minLength
// characters survive, text is returned unchanged.
func Cleanup(text string, minLength int) string {
	raw := text
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		// "-- " starts a signature
		if line == "-- " || line == "--" {
			break
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ">"),
			headerLine.MatchString(trimmed),
			separatorLine.MatchString(trimmed),
			boilerplateLine.MatchString(trimmed),
			attributionLine.MatchString(trimmed):
			continue
		}
		kept = append(kept, trimmed)
	}

	cleaned := blankRun.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) < minLength {
		return raw
	}
	return cleaned
}
