package summary

import (
	"fmt"
	"strings"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/utils"
)

// MaxBullets bounds the number of lines in a digest
const MaxBullets = 4

const bullet = "• "

// SystemPrompt is sent as the system role by chat style providers
const SystemPrompt = "You summarize emails. Respond only with JSON."

const promptFormat = `Summarize the following email in at most %d short bullet points.
Respond with a JSON object containing:
- bullets: array of strings (one sentence each, most important first)

Email:
From: %s
To: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// BuildPrompt renders the digest prompt. The body is sanitized and cut to
// maxBodySize bytes.
func BuildPrompt(tp *utils.TextProcessor, env *core.MessageEnvelope, content *core.NormalizedContent, maxBodySize int) string {
	to := ""
	if len(env.To) > 0 {
		to = env.To[0]
		if len(env.To) > 1 {
			to += fmt.Sprintf(" and %d others", len(env.To)-1)
		}
	}

	body := tp.ProcessText(content.PlainText, maxBodySize)
	return fmt.Sprintf(promptFormat, MaxBullets, env.From, to, env.Subject, body)
}

type response struct {
	Bullets []string `json:"bullets"`
}

// ParseResponse turns a model reply into digest lines. Replies that are not
// the requested JSON are accepted as free text.
func ParseResponse(text string) (string, error) {
	var resp response
	if err := utils.DecodeJSONObject(text, &resp); err == nil && len(resp.Bullets) > 0 {
		return JoinBullets(resp.Bullets), nil
	}

	if digest := FormatBullets(text); digest != "" {
		return digest, nil
	}
	return "", fmt.Errorf("empty summary response")
}

// JoinBullets renders lines as a bullet list, dropping blanks and anything
// past MaxBullets
func JoinBullets(lines []string) string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•-* "))
		if line == "" {
			continue
		}
		out = append(out, bullet+line)
		if len(out) == MaxBullets {
			break
		}
	}
	return strings.Join(out, "\n")
}

// FormatBullets normalizes free text: text already laid out as a list keeps
// its lines, prose is split into one bullet per sentence
func FormatBullets(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") {
			return JoinBullets(lines)
		}
	}

	var sentences []string
	for _, s := range strings.Split(strings.Join(strings.Fields(text), " "), ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s+".")
		}
	}
	return JoinBullets(sentences)
}
