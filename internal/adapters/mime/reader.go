// Package mime reads RFC 5322 messages from disk into the pipeline's raw
// message form, for offline analysis of exported mail.
package mime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/utils"
)

const (
	// DefaultMaxPartSize bounds how much of a single text part is read
	DefaultMaxPartSize = 1 << 20
	snippetLength      = 200
	maxDepth           = 16
)

// Message is a parsed message plus the headers used to rebuild threads
type Message struct {
	Raw        core.RawMessage
	MessageID  string
	InReplyTo  []string
	References []string
}

// Reader parses raw messages
type Reader struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	maxPartSize   int64
}

// NewReader creates a new message reader
func NewReader(textProcessor *utils.TextProcessor, logger *zap.Logger, maxPartSize int64) *Reader {
	if maxPartSize <= 0 {
		maxPartSize = DefaultMaxPartSize
	}
	return &Reader{
		textProcessor: textProcessor,
		logger:        logger,
		maxPartSize:   maxPartSize,
	}
}

// ReadFile parses the message stored at path. The file name stands in for
// the message ID when the message has none.
func (r *Reader) ReadFile(path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message: %w", err)
	}
	defer f.Close()

	return r.Read(filepath.Base(path), f)
}

// Read parses a single message. Unknown charsets and transfer encodings are
// tolerated, the affected parts keep their raw bytes.
func (r *Reader) Read(name string, src io.Reader) (*Message, error) {
	entity, err := message.Read(src)
	if err != nil && !isRecoverable(err) {
		return nil, fmt.Errorf("%w: failed to parse message %s: %v", core.ErrExtraction, name, err)
	}

	h := mail.Header{Header: entity.Header}
	msg := &Message{}

	if id, err := h.MessageID(); err == nil {
		msg.MessageID = id
	}
	if ids, err := h.MsgIDList("In-Reply-To"); err == nil {
		msg.InReplyTo = ids
	}
	if ids, err := h.MsgIDList("References"); err == nil {
		msg.References = ids
	}

	env := core.MessageEnvelope{
		ID:       msg.MessageID,
		ThreadID: msg.MessageID,
		To:       recipients(h),
	}
	if env.ID == "" {
		env.ID = name
		env.ThreadID = name
	}
	if from, err := h.Text("From"); err == nil {
		env.From = from
	}
	if subject, err := h.Subject(); err == nil {
		env.Subject = subject
	}
	if date, err := h.Date(); err == nil {
		env.Date = date
	}

	payload, err := r.walk(entity, 0)
	if err != nil {
		r.logger.Warn("Message body only partly read",
			zap.String("message_id", env.ID),
			zap.Error(err))
	}
	env.Snippet = r.textProcessor.Snippet(firstText(payload), snippetLength)

	msg.Raw = core.RawMessage{Envelope: env, Payload: payload}
	return msg, nil
}

func (r *Reader) walk(entity *message.Entity, depth int) (*core.MimePart, error) {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}
	part := &core.MimePart{MimeType: strings.ToLower(mediaType)}
	if disposition, params, err := entity.Header.ContentDisposition(); err == nil {
		part.Filename = params["filename"]
		if part.Filename == "" && disposition == "attachment" {
			part.Filename = "attachment"
		}
	}

	if mr := entity.MultipartReader(); mr != nil {
		if depth >= maxDepth {
			return part, fmt.Errorf("multipart nesting deeper than %d", maxDepth)
		}
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !isRecoverable(err) {
				return part, err
			}
			childPart, err := r.walk(child, depth+1)
			part.Parts = append(part.Parts, childPart)
			if err != nil {
				return part, err
			}
		}
		return part, nil
	}

	if strings.HasPrefix(part.MimeType, "text/") && part.Filename == "" {
		body, err := io.ReadAll(io.LimitReader(entity.Body, r.maxPartSize))
		if err != nil {
			return part, fmt.Errorf("failed to read %s part: %w", part.MimeType, err)
		}
		part.Data = r.textProcessor.SanitizeUTF8(string(body))
		part.Encoding = core.EncodingNone
	}
	return part, nil
}

func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func recipients(h mail.Header) []string {
	addrs, err := h.AddressList("To")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Name != "" {
			out = append(out, addr.Name+" <"+addr.Address+">")
		} else {
			out = append(out, addr.Address)
		}
	}
	return out
}

// firstText returns the first inline text/plain body in the tree
func firstText(part *core.MimePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/plain" && part.Filename == "" && strings.TrimSpace(part.Data) != "" {
		return part.Data
	}
	for _, child := range part.Parts {
		if text := firstText(child); text != "" {
			return text
		}
	}
	return ""
}
