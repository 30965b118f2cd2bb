package core

import (
	"time"
)

// CredentialPair holds the OAuth tokens issued for a mailbox
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is no longer usable at now
func (c *CredentialPair) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Session represents a connected mailbox and its credential state
type Session struct {
	ID          string
	Connected   bool
	Email       string
	DisplayName string
	Credentials *CredentialPair
	ConnectedAt time.Time
}

// IsValid reports whether the session can be used for remote calls at now
func (s Session) IsValid(now time.Time) bool {
	return s.Connected && s.Credentials != nil && !s.Credentials.Expired(now)
}

// Identity is the authenticated account behind a credential pair
type Identity struct {
	Email string
	Name  string
}

// MessageEnvelope represents the header-level metadata of a message
type MessageEnvelope struct {
	ID       string
	ThreadID string
	From     string
	To       []string
	Subject  string
	Date     time.Time
	Snippet  string
	Unread   bool
	Starred  bool
}

// Transfer encodings understood by the content extractor
const (
	EncodingNone      = ""
	EncodingBase64URL = "base64url"
)

// MimePart is a node of a message's MIME tree. Data holds the part body in
// the transfer encoding named by Encoding.
type MimePart struct {
	MimeType string
	Filename string
	Data     string
	Encoding string
	Parts    []*MimePart
}

// RawMessage is a fully fetched message with its MIME payload
type RawMessage struct {
	Envelope MessageEnvelope
	Payload  *MimePart
}

// NormalizedContent is the readable text derived from a message payload
type NormalizedContent struct {
	PlainText     string
	SourceWasHTML bool
}

// Category is the single classification assigned to a message
type Category struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// SentimentTag is one of the tone labels detected in a message
type SentimentTag struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// SuggestedAction is an action the reader may want to take on a message
type SuggestedAction struct {
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// Task priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a to-do phrase extracted from a message body
type Task struct {
	Text     string `json:"text"`
	Deadline string `json:"deadline,omitempty"`
	Priority string `json:"priority"`
	Source   string `json:"source"`
}

// ThreadSummary describes a conversation spanning several messages
type ThreadSummary struct {
	EmailCount   int       `json:"emailCount"`
	Participants []string  `json:"participants"`
	TimeSpan     string    `json:"timeSpan"`
	KeyTopics    []string  `json:"keyTopics"`
	LastActivity time.Time `json:"lastActivity"`
	Summary      string    `json:"summary"`
}

// IntelligenceRecord is the structured analysis of a message
type IntelligenceRecord struct {
	Category  Category          `json:"category"`
	Sentiment []SentimentTag    `json:"sentiment"`
	Actions   []SuggestedAction `json:"actions"`
	Tasks     []Task            `json:"tasks"`
	Thread    *ThreadSummary    `json:"thread"`
}

// AnalysisInput is the view of a message the intelligence engine works on
type AnalysisInput struct {
	ID        string
	Subject   string
	Sender    string
	Body      string
	Timestamp time.Time
}

// NewAnalysisInput builds the analysis view of an envelope and its content
func NewAnalysisInput(env MessageEnvelope, content NormalizedContent) AnalysisInput {
	return AnalysisInput{
		ID:        env.ID,
		Subject:   env.Subject,
		Sender:    env.From,
		Body:      content.PlainText,
		Timestamp: env.Date,
	}
}

// EnrichedMessage is the unit handed to the presentation layer
type EnrichedMessage struct {
	ID             string            `json:"id"`
	ThreadID       string            `json:"threadId"`
	Subject        string            `json:"subject"`
	From           string            `json:"from"`
	To             []string          `json:"to"`
	Date           string            `json:"date"`
	Snippet        string            `json:"snippet"`
	Unread         bool              `json:"unread"`
	Starred        bool              `json:"starred"`
	Content        string            `json:"content"`
	ContentWasHTML bool              `json:"contentWasHtml"`
	Category       Category          `json:"category"`
	Sentiment      []SentimentTag    `json:"sentiment"`
	Actions        []SuggestedAction `json:"actions"`
	Tasks          []Task            `json:"tasks"`
	Thread         *ThreadSummary    `json:"thread"`
	Summary        string            `json:"summary,omitempty"`
}

// NewEnrichedMessage merges an envelope, its content and its analysis
func NewEnrichedMessage(env MessageEnvelope, content NormalizedContent, record IntelligenceRecord) EnrichedMessage {
	date := ""
	if !env.Date.IsZero() {
		date = env.Date.UTC().Format(time.RFC3339)
	}
	return EnrichedMessage{
		ID:             env.ID,
		ThreadID:       env.ThreadID,
		Subject:        env.Subject,
		From:           env.From,
		To:             env.To,
		Date:           date,
		Snippet:        env.Snippet,
		Unread:         env.Unread,
		Starred:        env.Starred,
		Content:        content.PlainText,
		ContentWasHTML: content.SourceWasHTML,
		Category:       record.Category,
		Sentiment:      record.Sentiment,
		Actions:        record.Actions,
		Tasks:          record.Tasks,
		Thread:         record.Thread,
	}
}

// CacheEntry is a cached intelligence record
type CacheEntry struct {
	Key       string
	Record    IntelligenceRecord
	StoredAt  time.Time
	ExpiresAt time.Time
}
