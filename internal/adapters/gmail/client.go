package gmail

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikey/inbox-intel/internal/core"
)

// Listing and fan-out bounds
const (
	MaxListLimit       = 50
	DefaultConcurrency = 5
	MaxConcurrency     = 10
	DefaultTimeout     = 15 * time.Second
)

var metadataHeaders = []string{"From", "To", "Subject", "Date"}

// Options configures the Gmail client
type Options struct {
	// Endpoint overrides the API base URL, e.g. for tests
	Endpoint       string
	UserID         string
	Concurrency    int
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.UserID == "" {
		o.UserID = "me"
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Concurrency > MaxConcurrency {
		o.Concurrency = MaxConcurrency
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultTimeout
	}
	return o
}

// Dialer binds session credentials to Gmail clients
type Dialer struct {
	opts   Options
	logger *zap.Logger
}

// NewDialer creates a new Gmail dialer
func NewDialer(opts Options, logger *zap.Logger) *Dialer {
	return &Dialer{
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Initialize creates a client using the credentials as they are. The token
// is never refreshed behind the caller's back.
func (d *Dialer) Initialize(ctx context.Context, creds *core.CredentialPair) (core.MailClient, error) {
	if creds == nil || creds.AccessToken == "" || creds.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: incomplete credentials", core.ErrInitializationFailed)
	}

	token := &oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
		Expiry:      creds.ExpiresAt,
	}
	clientOpts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))),
	}
	if d.opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(d.opts.Endpoint))
	}

	svc, err := gmailapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInitializationFailed, err)
	}
	return NewClient(svc, d.opts, d.logger), nil
}

// Client implements core.MailClient on top of the Gmail REST API
type Client struct {
	svc    *gmailapi.Service
	opts   Options
	logger *zap.Logger
}

// NewClient wraps an existing Gmail service
func NewClient(svc *gmailapi.Service, opts Options, logger *zap.Logger) *Client {
	return &Client{
		svc:    svc,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// ListMessageIDs returns up to limit message ids, newest first. limit is
// clamped to [1, 50].
func (c *Client) ListMessageIDs(ctx context.Context, limit int) ([]string, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	resp, err := c.svc.Users.Messages.List(c.opts.UserID).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: listing messages: %v", core.ErrRemoteAPI, err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// FetchMetadata retrieves the envelope of a message without its body
func (c *Client) FetchMetadata(ctx context.Context, id string) (*core.MessageEnvelope, error) {
	msg, err := c.svc.Users.Messages.Get(c.opts.UserID, id).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching metadata of %s: %v", core.ErrRemoteAPI, id, err)
	}

	env := envelopeFromMessage(msg)
	return &env, nil
}

// FetchFull retrieves a message together with its MIME tree
func (c *Client) FetchFull(ctx context.Context, id string) (*core.RawMessage, error) {
	msg, err := c.svc.Users.Messages.Get(c.opts.UserID, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching message %s: %v", core.ErrRemoteAPI, id, err)
	}

	return &core.RawMessage{
		Envelope: envelopeFromMessage(msg),
		Payload:  partFromGmail(msg.Payload),
	}, nil
}

// ListEnvelopes lists the most recent messages and fetches each of them.
// Messages that fail to fetch are logged and left out; the others keep the
// listing order.
func (c *Client) ListEnvelopes(ctx context.Context, limit int, withBody bool) ([]core.RawMessage, error) {
	ids, err := c.ListMessageIDs(ctx, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*core.RawMessage, len(ids))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
			defer cancel()

			raw, err := c.fetch(fetchCtx, id, withBody)
			if err != nil {
				c.logger.Warn("Skipping message that failed to fetch",
					zap.String("message_id", id),
					zap.Error(err))
				return nil
			}
			results[i] = raw
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := make([]core.RawMessage, 0, len(results))
	for _, raw := range results {
		if raw != nil {
			messages = append(messages, *raw)
		}
	}

	c.logger.Debug("Fetched messages",
		zap.Int("listed", len(ids)),
		zap.Int("fetched", len(messages)),
		zap.Bool("with_body", withBody))
	return messages, nil
}

func (c *Client) fetch(ctx context.Context, id string, withBody bool) (*core.RawMessage, error) {
	if withBody {
		return c.FetchFull(ctx, id)
	}
	env, err := c.FetchMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return &core.RawMessage{Envelope: *env}, nil
}
