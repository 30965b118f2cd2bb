package gmail

import (
	netmail "net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mikey/inbox-intel/internal/core"
)

// Date layouts seen in the wild that the RFC 5322 parser rejects
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

func envelopeFromMessage(msg *gmailapi.Message) core.MessageEnvelope {
	env := core.MessageEnvelope{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch {
			case strings.EqualFold(header.Name, "From"):
				env.From = header.Value
			case strings.EqualFold(header.Name, "To"):
				env.To = splitAddresses(header.Value)
			case strings.EqualFold(header.Name, "Subject"):
				env.Subject = header.Value
			case strings.EqualFold(header.Name, "Date"):
				env.Date = parseDate(header.Value)
			}
		}
	}
	if env.Date.IsZero() && msg.InternalDate > 0 {
		env.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	for _, label := range msg.LabelIds {
		switch label {
		case "UNREAD":
			env.Unread = true
		case "STARRED":
			env.Starred = true
		}
	}
	return env
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if t, err := netmail.ParseDate(value); err == nil {
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// splitAddresses returns the recipients of an address list header, falling
// back to a plain comma split for headers the parser rejects
func splitAddresses(value string) []string {
	if addrs, err := mail.ParseAddressList(value); err == nil {
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

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func partFromGmail(p *gmailapi.MessagePart) *core.MimePart {
	if p == nil {
		return nil
	}

	part := &core.MimePart{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil && p.Body.Data != "" {
		part.Data = p.Body.Data
		part.Encoding = core.EncodingBase64URL
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, partFromGmail(child))
	}
	return part
}
