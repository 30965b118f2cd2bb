package extract

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractPrefersPlainText(t *testing.T) {
	e := NewExtractor(zap.NewNop(), 0)
	msg := &core.RawMessage{
		Envelope: core.MessageEnvelope{ID: "1", Snippet: "snippet text"},
		Payload: &core.MimePart{
			MimeType: "multipart/alternative",
			Parts: []*core.MimePart{
				{MimeType: "text/html", Data: b64("<p>html version of the message</p>"), Encoding: core.EncodingBase64URL},
				{MimeType: "text/plain; charset=UTF-8", Data: b64("Plain version of the message body."), Encoding: core.EncodingBase64URL},
			},
		},
	}

	content := e.Extract(msg)
	assert.Equal(t, "Plain version of the message body.", content.PlainText)
	assert.False(t, content.SourceWasHTML)
}

func TestExtractSkipsBlankPlainPart(t *testing.T) {
	e := NewExtractor(zap.NewNop(), 0)
	msg := &core.RawMessage{
		Payload: &core.MimePart{
			MimeType: "multipart/mixed",
			Parts: []*core.MimePart{
				{MimeType: "text/plain", Data: b64("   \n "), Encoding: core.EncodingBase64URL},
				{
					MimeType: "multipart/alternative",
					Parts: []*core.MimePart{
						{MimeType: "text/plain", Data: b64("Nested plain text that is long enough."), Encoding: core.EncodingBase64URL},
					},
				},
			},
		},
	}

	assert.Equal(t, "Nested plain text that is long enough.", e.Extract(msg).PlainText)
}

func TestExtractHTML(t *testing.T) {
	e := NewExtractor(zap.NewNop(), 0)
	markup := `<html><head><style>.x{color:red}</style><title>Title</title></head>
<body><h1>Weekly Report</h1><script>alert("boom")</script>
<p>Body <b>text</b> here with a <a href="https://example.com">link</a>.</p>
<img src="https://cdn.example.com/pixel.png" alt="tracking pixel"></body></html>`

	msg := &core.RawMessage{
		Payload: &core.MimePart{MimeType: "text/html", Data: b64(markup), Encoding: core.EncodingBase64URL},
	}

	content := e.Extract(msg)
	assert.True(t, content.SourceWasHTML)
	assert.Contains(t, content.PlainText, "Weekly Report")
	assert.Contains(t, content.PlainText, "Body text here")
	for _, banned := range []string{"alert", "color:red", "pixel", "<", "#", "**"} {
		assert.NotContains(t, content.PlainText, banned)
	}

	lines := strings.Split(content.PlainText, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "Weekly Report", lines[0])
	assert.Equal(t, "", lines[1])
}

func TestExtractFallsBackToSnippet(t *testing.T) {
	e := NewExtractor(zap.NewNop(), 0)

	t.Run("no text parts", func(t *testing.T) {
		msg := &core.RawMessage{
			Envelope: core.MessageEnvelope{Snippet: "It&#39;s only a snippet here"},
			Payload:  &core.MimePart{MimeType: "application/pdf", Filename: "a.pdf", Data: b64("%PDF"), Encoding: core.EncodingBase64URL},
		}
		assert.Equal(t, "It's only a snippet here", e.Extract(msg).PlainText)
	})

	t.Run("undecodable body", func(t *testing.T) {
		msg := &core.RawMessage{
			Envelope: core.MessageEnvelope{Snippet: "fallback snippet for the message"},
			Payload:  &core.MimePart{MimeType: "text/plain", Data: "!!not base64!!", Encoding: core.EncodingBase64URL},
		}
		content := e.Extract(msg)
		assert.Equal(t, "fallback snippet for the message", content.PlainText)
		assert.False(t, content.SourceWasHTML)
	})

	t.Run("nil payload", func(t *testing.T) {
		msg := &core.RawMessage{Envelope: core.MessageEnvelope{Snippet: "metadata only message"}}
		assert.Equal(t, "metadata only message", e.Extract(msg).PlainText)
	})
}

func TestDecode(t *testing.T) {
	for _, data := range []string{
		base64.URLEncoding.EncodeToString([]byte("hello?>")),
		base64.RawURLEncoding.EncodeToString([]byte("hello?>")),
		base64.StdEncoding.EncodeToString([]byte("hello?>")),
	} {
		got, err := Decode(data, core.EncodingBase64URL)
		require.NoError(t, err)
		assert.Equal(t, "hello?>", got)
	}

	got, err := Decode("as is", core.EncodingNone)
	require.NoError(t, err)
	assert.Equal(t, "as is", got)

	_, err = Decode("x", "quoted-printable")
	assert.ErrorIs(t, err, core.ErrExtraction)
}

func TestCleanup(t *testing.T) {
	input := strings.Join([]string{
		"From: Alice <alice@example.com>",
		"Subject: Lunch",
		"   Hi Bob,   ",
		"",
		"",
		"",
		"",
		"Are we still on for lunch tomorrow at noon?",
		"_____",
		"On Tue, Mar 5, 2024 at 10:00 AM Bob <bob@example.com> wrote:",
		"> Lunch tomorrow?",
		"Sent from my iPhone",
		"-- ",
		"Alice Example",
		"VP of Lunch",
	}, "\r\n")

	got := Cleanup(input, DefaultMinCleanLength)
	assert.Equal(t, "Hi Bob,\n\nAre we still on for lunch tomorrow at noon?", got)
}

func TestCleanupTransportHeaders(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "forwarded headers between paragraphs",
			input: strings.Join([]string{
				"Hello team, the report is attached.",
				"Received: from mx.example.com by mx2",
				"X-Mailer: Outlook 16",
				"Content-Type: text/plain; charset=utf-8",
				"Content-Transfer-Encoding: 7bit",
				"DKIM-Signature: v=1; a=rsa-sha256",
				"Return-Path: <bounce@example.com>",
				"Message-ID: <abc@example.com>",
				"MIME-Version: 1.0",
				"See you on Monday for the review.",
			}, "\n"),
			want: "Hello team, the report is attached.\nSee you on Monday for the review.",
		},
		{
			name:  "header words inside a sentence stay",
			input: "We received: three boxes and the content looks fine overall.",
			want:  "We received: three boxes and the content looks fine overall.",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Cleanup(tc.input, DefaultMinCleanLength))
		})
	}
}

func TestCleanupSafetyValve(t *testing.T) {
	t.Run("returns input when cleanup leaves too little", func(t *testing.T) {
		input := "> quoted reply that is long\n> and another quoted line"
		assert.Equal(t, input, Cleanup(input, DefaultMinCleanLength))
	})

	t.Run("never shorter than the threshold unless input was", func(t *testing.T) {
		inputs := []string{
			"Subject: hi\nok",
			"From: a@b.c\n-- \nsignature only block here",
			"short",
			"A line of ordinary text that is clearly long enough.",
			"=====\n-----\n_____",
		}
		for _, input := range inputs {
			got := Cleanup(input, DefaultMinCleanLength)
			if utf8.RuneCountInString(input) >= DefaultMinCleanLength {
				assert.GreaterOrEqual(t, utf8.RuneCountInString(got), DefaultMinCleanLength, input)
			}
		}
	})
}
