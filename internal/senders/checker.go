package senders

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Checker matches senders against a list of addresses and domains whose
// messages are ignored
type Checker struct {
	addresses map[string]struct{}
	domains   map[string]struct{}
	logger    *zap.Logger
}

// NewChecker creates a new sender checker. Entries containing "@" match a
// full address, the others match the sender's domain.
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		addresses: make(map[string]struct{}),
		domains:   make(map[string]struct{}),
		logger:    logger,
	}
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
		case strings.Contains(entry, "@"):
			c.addresses[entry] = struct{}{}
		default:
			c.domains[strings.TrimPrefix(entry, "@")] = struct{}{}
		}
	}

	if len(c.addresses)+len(c.domains) > 0 && logger != nil {
		logger.Info("Initialized sender ignore list",
			zap.Int("addresses", len(c.addresses)),
			zap.Int("domains", len(c.domains)))
	}
	return c
}

// IsIgnored reports whether from, a bare address or a From header value,
// is on the list
func (c *Checker) IsIgnored(from string) bool {
	if len(c.addresses)+len(c.domains) == 0 {
		return false
	}

	address := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(from); err == nil {
		address = parsed.Address
	}
	address = strings.ToLower(address)

	if _, ok := c.addresses[address]; ok {
		c.debug("Sender address is ignored", from)
		return true
	}

	at := strings.LastIndexByte(address, '@')
	if at < 0 {
		return false
	}
	if _, ok := c.domains[address[at+1:]]; ok {
		c.debug("Sender domain is ignored", from)
		return true
	}
	return false
}

func (c *Checker) debug(msg, from string) {
	if c.logger != nil {
		c.logger.Debug(msg, zap.String("sender", from))
	}
}
