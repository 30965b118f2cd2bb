package extract

import (
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/mikey/inbox-intel/internal/core"
)

// DefaultMinCleanLength is the shortest cleaned text accepted before the
// cleanup is discarded
const DefaultMinCleanLength = 20

// Extractor turns MIME payloads into plain text. It holds no mutable state.
type Extractor struct {
	logger         *zap.Logger
	minCleanLength int
}

// NewExtractor creates a new content extractor
func NewExtractor(logger *zap.Logger, minCleanLength int) *Extractor {
	if minCleanLength <= 0 {
		minCleanLength = DefaultMinCleanLength
	}
	return &Extractor{
		logger:         logger,
		minCleanLength: minCleanLength,
	}
}

// Extract prefers the first non-empty text/plain part, then the first
// text/html part, then the snippet. Decode and conversion failures fall
// back to the snippet.
func (e *Extractor) Extract(msg *core.RawMessage) core.NormalizedContent {
	snippet := html.UnescapeString(msg.Envelope.Snippet)

	if text, ok := e.findText(msg, msg.Payload, "text/plain"); ok {
		return core.NormalizedContent{PlainText: Cleanup(text, e.minCleanLength)}
	}

	if markup, ok := e.findText(msg, msg.Payload, "text/html"); ok {
		text, err := HTMLToText(markup)
		if err != nil {
			e.logger.Warn("Failed to convert HTML body, using snippet",
				zap.String("message_id", msg.Envelope.ID),
				zap.Error(err))
			return core.NormalizedContent{PlainText: Cleanup(snippet, e.minCleanLength)}
		}
		return core.NormalizedContent{PlainText: Cleanup(text, e.minCleanLength), SourceWasHTML: true}
	}

	return core.NormalizedContent{PlainText: Cleanup(snippet, e.minCleanLength)}
}

// findText walks the tree depth first for a decodable, non-blank part of
// the given type
func (e *Extractor) findText(msg *core.RawMessage, part *core.MimePart, mimeType string) (string, bool) {
	if part == nil {
		return "", false
	}

	if part.Filename == "" && hasMimeType(part.MimeType, mimeType) && part.Data != "" {
		text, err := Decode(part.Data, part.Encoding)
		if err != nil {
			e.logger.Warn("Failed to decode message part",
				zap.String("message_id", msg.Envelope.ID),
				zap.String("mime_type", part.MimeType),
				zap.Error(err))
		} else if strings.TrimSpace(text) != "" {
			return text, true
		}
	}

	for _, child := range part.Parts {
		if text, ok := e.findText(msg, child, mimeType); ok {
			return text, true
		}
	}
	return "", false
}

func hasMimeType(actual, want string) bool {
	mediaType, _, _ := strings.Cut(actual, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), want)
}

// Decode reverses the transport encoding of a part body. base64url data
// may come with or without padding; standard base64 is accepted as well.
func Decode(data, encoding string) (string, error) {
	switch encoding {
	case core.EncodingNone:
		return data, nil
	case core.EncodingBase64URL:
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			decoded, err = base64.StdEncoding.DecodeString(data)
			if err != nil {
				return "", fmt.Errorf("%w: decoding base64 body: %v", core.ErrExtraction, err)
			}
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("%w: unsupported transfer encoding %q", core.ErrExtraction, encoding)
	}
}
