// Package approval keeps the write-once ledger of user decisions on
// proposed actions. Records are never updated or deleted; a changed mind
// is a new record.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IvoFFaria/Jarvis-IA/pkg/canonicalize"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

// CollectionApprovals is the document store collection name.
const CollectionApprovals = "approvals"

// ErrInvalidApproval rejects malformed approval requests.
var ErrInvalidApproval = errors.New("approval: invalid request")

// Record is one logged decision. PayloadHash is the canonical hash of the
// payload at decision time, so later drift is detectable.
type Record struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	ActionType  string         `json:"action_type"`
	Payload     map[string]any `json:"payload"`
	PayloadHash string         `json:"payload_hash"`
	Approved    bool           `json:"approved"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Request carries a decision to record.
type Request struct {
	UserID     string         `json:"user_id"`
	ActionType string         `json:"action_type"`
	Payload    map[string]any `json:"payload"`
	Approved   bool           `json:"approved"`
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Ledger records and lists approval decisions.
type Ledger struct {
	docs   store.DocumentStore
	clock  Clock
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// NewLedger builds a Ledger over the given document store.
func NewLedger(docs store.DocumentStore, opts ...Option) *Ledger {
	l := &Ledger{
		docs:   docs,
		clock:  systemClock{},
		logger: slog.Default().With("component", "approval"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create appends a decision to the ledger. ApprovedAt is set only when
// the decision is an approval.
func (l *Ledger) Create(ctx context.Context, req Request) (*Record, error) {
	if req.UserID == "" || req.ActionType == "" {
		return nil, fmt.Errorf("%w: user id and action type are required", ErrInvalidApproval)
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	hash, err := canonicalize.Hash(payload)
	if err != nil {
		return nil, fmt.Errorf("approval: hash payload: %w", err)
	}

	now := l.clock.Now()
	rec := Record{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		ActionType:  req.ActionType,
		Payload:     payload,
		PayloadHash: hash,
		Approved:    req.Approved,
		CreatedAt:   now,
	}
	if req.Approved {
		rec.ApprovedAt = &now
	}

	if err := l.docs.Insert(ctx, CollectionApprovals, rec.toDoc()); err != nil {
		return nil, fmt.Errorf("approval: record decision: %w", err)
	}
	l.logger.Info("approval recorded", "user_id", req.UserID, "action_type", req.ActionType, "approved", req.Approved)
	return &rec, nil
}

// List returns the user's decisions in insertion order, capped at limit.
// A non-positive limit defaults to 50.
func (l *Ledger) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidApproval)
	}
	if limit <= 0 {
		limit = 50
	}
	docs, err := l.docs.Find(ctx, CollectionApprovals, store.Filter{
		Eq: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("approval: list: %w", err)
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := recordFromDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r Record) toDoc() map[string]any {
	approvedAt := ""
	if r.ApprovedAt != nil {
		approvedAt = store.FormatTime(*r.ApprovedAt)
	}
	return map[string]any{
		"id":           r.ID,
		"user_id":      r.UserID,
		"action_type":  r.ActionType,
		"payload":      r.Payload,
		"payload_hash": r.PayloadHash,
		"approved":     r.Approved,
		"approved_at":  approvedAt,
		"created_at":   store.FormatTime(r.CreatedAt),
	}
}

func recordFromDoc(doc map[string]any) (Record, error) {
	rec := Record{}
	rec.ID, _ = doc["id"].(string)
	rec.UserID, _ = doc["user_id"].(string)
	rec.ActionType, _ = doc["action_type"].(string)
	rec.Payload, _ = doc["payload"].(map[string]any)
	rec.PayloadHash, _ = doc["payload_hash"].(string)
	rec.Approved, _ = doc["approved"].(bool)

	createdAt, ok := doc["created_at"].(string)
	if !ok {
		return Record{}, fmt.Errorf("approval: document missing created_at")
	}
	var err error
	if rec.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return Record{}, fmt.Errorf("approval: document created_at: %w", err)
	}
	if s, _ := doc["approved_at"].(string); s != "" {
		t, err := store.ParseTime(s)
		if err != nil {
			return Record{}, fmt.Errorf("approval: document approved_at: %w", err)
		}
		rec.ApprovedAt = &t
	}
	return rec, nil
}
