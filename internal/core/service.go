package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// SenderFilter decides whether messages from a sender are dropped
type SenderFilter interface {
	IsIgnored(from string) bool
}

// InboxOptions holds the tunables of the inbox pipeline
type InboxOptions struct {
	DefaultLimit int
	MaxLimit     int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// InboxService is the core ingestion and enrichment pipeline
type InboxService struct {
	credentials CredentialSource
	mailFactory MailClientFactory
	extractor   ContentExtractor
	analyzer    Analyzer
	summarizer  Summarizer
	cache       CacheRepository
	senders     SenderFilter
	logger      *zap.Logger
	opts        InboxOptions
}

// NewInboxService creates a new inbox service. summarizer, cache and
// senders may be nil.
func NewInboxService(
	credentials CredentialSource,
	mailFactory MailClientFactory,
	extractor ContentExtractor,
	analyzer Analyzer,
	summarizer Summarizer,
	cache CacheRepository,
	senders SenderFilter,
	logger *zap.Logger,
	opts InboxOptions,
) *InboxService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 50
	}
	return &InboxService{
		credentials: credentials,
		mailFactory: mailFactory,
		extractor:   extractor,
		analyzer:    analyzer,
		summarizer:  summarizer,
		cache:       cache,
		senders:     senders,
		logger:      logger,
		opts:        opts,
	}
}

// NormalizeLimit applies the default and the hard maximum to a requested limit
func (s *InboxService) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// client validates the session and binds its credentials to a mail client
func (s *InboxService) client(ctx context.Context, sessionID string) (MailClient, error) {
	creds, err := s.credentials.Credentials(sessionID)
	if err != nil {
		return nil, err
	}
	client, err := s.mailFactory.Initialize(ctx, creds)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Envelopes lists message metadata without bodies
func (s *InboxService) Envelopes(ctx context.Context, sessionID string, limit int) ([]MessageEnvelope, error) {
	client, err := s.client(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raws, err := client.ListEnvelopes(ctx, s.NormalizeLimit(limit), false)
	if err != nil {
		return nil, err
	}

	envelopes := make([]MessageEnvelope, 0, len(raws))
	for _, raw := range raws {
		if s.isIgnored(raw.Envelope.From) {
			continue
		}
		envelopes = append(envelopes, raw.Envelope)
	}
	return envelopes, nil
}

// Refresh fetches the most recent messages of a session and enriches them.
// Messages that fail to fetch are skipped by the mail client; the result
// keeps the listing order.
func (s *InboxService) Refresh(ctx context.Context, sessionID string, limit int) ([]EnrichedMessage, error) {
	client, err := s.client(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raws, err := client.ListEnvelopes(ctx, s.NormalizeLimit(limit), true)
	if err != nil {
		return nil, err
	}

	return s.Digest(ctx, raws), nil
}

// Digest enriches messages obtained outside a mailbox session, such as
// exported files, dropping those from ignored senders
func (s *InboxService) Digest(ctx context.Context, raws []RawMessage) []EnrichedMessage {
	kept := make([]RawMessage, 0, len(raws))
	for _, raw := range raws {
		if s.isIgnored(raw.Envelope.From) {
			s.logger.Debug("Dropping message from ignored sender",
				zap.String("message_id", raw.Envelope.ID),
				zap.String("sender", raw.Envelope.From))
			continue
		}
		kept = append(kept, raw)
	}

	return s.Enrich(ctx, kept)
}

// Enrich extracts and analyzes already fetched messages. Messages of the
// same thread are analyzed together.
func (s *InboxService) Enrich(ctx context.Context, raws []RawMessage) []EnrichedMessage {
	contents := make([]NormalizedContent, len(raws))
	inputs := make([]AnalysisInput, len(raws))
	threads := make(map[string][]int)
	for i := range raws {
		contents[i] = s.extractor.Extract(&raws[i])
		inputs[i] = NewAnalysisInput(raws[i].Envelope, contents[i])
		if threadID := raws[i].Envelope.ThreadID; threadID != "" {
			threads[threadID] = append(threads[threadID], i)
		}
	}

	enriched := make([]EnrichedMessage, 0, len(raws))
	for i := range raws {
		var related []AnalysisInput
		for _, j := range threads[raws[i].Envelope.ThreadID] {
			if j != i {
				related = append(related, inputs[j])
			}
		}

		record := s.analyze(ctx, inputs[i], related)
		msg := NewEnrichedMessage(raws[i].Envelope, contents[i], record)

		if s.summarizer != nil {
			summary, err := s.summarizer.Summarize(ctx, &raws[i].Envelope, &contents[i])
			if err != nil {
				s.logger.Warn("Failed to summarize message",
					zap.String("message_id", raws[i].Envelope.ID),
					zap.Error(err))
			} else {
				msg.Summary = summary
			}
		}

		enriched = append(enriched, msg)
	}

	s.logger.Info("Enriched messages", zap.Int("count", len(enriched)))
	return enriched
}

// analyze runs the analyzer, going through the cache when enabled
func (s *InboxService) analyze(ctx context.Context, msg AnalysisInput, related []AnalysisInput) IntelligenceRecord {
	if !s.opts.CacheEnabled || s.cache == nil {
		return s.analyzer.Analyze(msg, related)
	}

	key := s.analyzer.Version() + ":" + Fingerprint(msg, related)
	if entry, err := s.cache.Get(ctx, key); err == nil {
		s.logger.Debug("Cache hit for analysis", zap.String("message_id", msg.ID))
		return entry.Record
	}

	record := s.analyzer.Analyze(msg, related)

	now := time.Now()
	entry := &CacheEntry{
		Key:       key,
		Record:    record,
		StoredAt:  now,
		ExpiresAt: now.Add(s.opts.CacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
	return record
}

func (s *InboxService) isIgnored(from string) bool {
	return s.senders != nil && s.senders.IsIgnored(from)
}

// Fingerprint derives a cache key from every input of an analysis
func Fingerprint(msg AnalysisInput, related []AnalysisInput) string {
	h := sha256.New()
	write := func(in AnalysisInput) {
		for _, field := range []string{in.ID, in.Subject, in.Sender, in.Body, strconv.FormatInt(in.Timestamp.UnixNano(), 10)} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
	}
	write(msg)
	fmt.Fprintf(h, "related:%d\x00", len(related))
	for _, r := range related {
		write(r)
	}
	return hex.EncodeToString(h.Sum(nil))
}
