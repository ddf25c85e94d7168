package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IvoFFaria/Jarvis-IA/pkg/privacy"
	"github.com/IvoFFaria/Jarvis-IA/pkg/security"
	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

// Clock abstracts time so TTL behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Manager owns the three memory tiers for all users. All values pass
// through the PII sanitizer before they are written to any tier.
type Manager struct {
	docs      store.DocumentStore
	sanitizer *privacy.Sanitizer
	clock     Clock
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager builds a Manager over the given document store.
func NewManager(docs store.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		docs:      docs,
		sanitizer: privacy.NewSanitizer(),
		clock:     systemClock{},
		logger:    slog.Default().With("component", "memory"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordHot stores a short lived memory. A non-positive ttlDays falls
// back to the default TTL.
func (m *Manager) RecordHot(ctx context.Context, userID, key string, value any, tags []string, ttlDays int) (*HotMemory, error) {
	if userID == "" || key == "" {
		return nil, fmt.Errorf("%w: user id and key are required", ErrInvalidRecord)
	}
	if ttlDays <= 0 {
		ttlDays = security.HotMemoryTTLDays
	}
	now := m.clock.Now()
	rec := HotMemory{
		ID:           uuid.NewString(),
		UserID:       userID,
		Key:          key,
		Value:        m.sanitizer.Sanitize(value),
		Tags:         tags,
		ExpiresAt:    now.AddDate(0, 0, ttlDays),
		LastAccessed: now,
		CreatedAt:    now,
	}
	if err := m.docs.Insert(ctx, CollectionHot, rec.toDoc()); err != nil {
		return nil, fmt.Errorf("memory: record hot %q: %w", key, err)
	}
	m.logger.Info("hot memory created", "user_id", userID, "key", key, "ttl_days", ttlDays)
	return &rec, nil
}

// RecordCold stores a permanent memory.
func (m *Manager) RecordCold(ctx context.Context, userID, key string, value any, tags []string) (*ColdMemory, error) {
	if userID == "" || key == "" {
		return nil, fmt.Errorf("%w: user id and key are required", ErrInvalidRecord)
	}
	now := m.clock.Now()
	rec := ColdMemory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       key,
		Value:     m.sanitizer.Sanitize(value),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.docs.Insert(ctx, CollectionCold, rec.toDoc()); err != nil {
		return nil, fmt.Errorf("memory: record cold %q: %w", key, err)
	}
	m.logger.Info("cold memory created", "user_id", userID, "key", key)
	return &rec, nil
}

// RecordArchive appends directly to the archive tier, for material that
// arrives already historical.
func (m *Manager) RecordArchive(ctx context.Context, userID, key string, value any, tags []string, reason string) (*ArchiveMemory, error) {
	if userID == "" || key == "" {
		return nil, fmt.Errorf("%w: user id and key are required", ErrInvalidRecord)
	}
	if reason == "" {
		reason = "archived automatically"
	}
	now := m.clock.Now()
	rec := ArchiveMemory{
		ID:             uuid.NewString(),
		UserID:         userID,
		Key:            key,
		Value:          m.sanitizer.Sanitize(value),
		Tags:           tags,
		ArchivedReason: reason,
		CreatedAt:      now,
		ArchivedAt:     now,
	}
	if err := m.docs.Insert(ctx, CollectionArchive, rec.toDoc()); err != nil {
		return nil, fmt.Errorf("memory: record archive %q: %w", key, err)
	}
	m.logger.Info("archive memory created", "user_id", userID, "key", key, "reason", reason)
	return &rec, nil
}

// SweepExpired moves every expired Hot record for the user into the
// Archive. For each record the Archive write happens first and the Hot
// delete second; on any failure the sweep stops and reports the count
// archived so far, leaving unswept records untouched for the next pass.
//
// Sweeps for the same user may race. The archive entry reuses the Hot
// record's id as its dedup key, and the delete is conditional on that id,
// so replaying a sweep is harmless.
func (m *Manager) SweepExpired(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	// One cutoff for the whole batch.
	now := m.clock.Now()
	cutoff := store.FormatTime(now)

	expired, err := m.docs.Find(ctx, CollectionHot, store.Filter{
		Eq: map[string]string{"user_id": userID},
		Lt: map[string]string{"expires_at": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("memory: sweep find: %w", err)
	}

	archived := 0
	for _, doc := range expired {
		rec, err := hotFromDoc(doc)
		if err != nil {
			return archived, fmt.Errorf("memory: sweep decode: %w", err)
		}

		existing, err := m.docs.Find(ctx, CollectionArchive, store.Filter{
			Eq: map[string]string{"id": rec.ID},
		})
		if err != nil {
			return archived, fmt.Errorf("memory: sweep dedup check: %w", err)
		}
		if len(existing) == 0 {
			arch := ArchiveMemory{
				ID:             rec.ID,
				UserID:         rec.UserID,
				Key:            rec.Key,
				Value:          rec.Value,
				Tags:           rec.Tags,
				ArchivedReason: ArchivedReasonTTL,
				CreatedAt:      rec.CreatedAt,
				ArchivedAt:     now,
			}
			if err := m.docs.Insert(ctx, CollectionArchive, arch.toDoc()); err != nil {
				// Hot record stays until the archive write succeeds.
				return archived, fmt.Errorf("memory: sweep archive %q: %w", rec.Key, err)
			}
		}

		n, err := m.docs.Delete(ctx, CollectionHot, store.Filter{
			Eq: map[string]string{"id": rec.ID},
		})
		if err != nil {
			return archived, fmt.Errorf("memory: sweep delete %q: %w", rec.Key, err)
		}
		if n > 0 {
			archived++
		}
	}
	if archived > 0 {
		m.logger.Info("expired hot memories archived", "user_id", userID, "count", archived)
	}
	return archived, nil
}

// Archive moves every Hot and Cold record matching (userID, key) into the
// Archive with the caller's reason, using the same archive-then-delete
// discipline as the TTL sweep. It returns the number of records moved.
func (m *Manager) Archive(ctx context.Context, userID, key, reason string) (int, error) {
	if userID == "" || key == "" {
		return 0, fmt.Errorf("%w: user id and key are required", ErrInvalidRecord)
	}
	if reason == "" {
		return 0, fmt.Errorf("%w: archive reason is required", ErrInvalidRecord)
	}
	now := m.clock.Now()
	moved := 0
	for _, coll := range []string{CollectionHot, CollectionCold} {
		docs, err := m.docs.Find(ctx, coll, store.Filter{
			Eq: map[string]string{"user_id": userID, "key": key},
		})
		if err != nil {
			return moved, fmt.Errorf("memory: archive find: %w", err)
		}
		for _, doc := range docs {
			id := docString(doc, "id")
			created, err := docTime(doc, "created_at")
			if err != nil {
				return moved, err
			}
			existing, err := m.docs.Find(ctx, CollectionArchive, store.Filter{
				Eq: map[string]string{"id": id},
			})
			if err != nil {
				return moved, fmt.Errorf("memory: archive dedup check: %w", err)
			}
			if len(existing) == 0 {
				arch := ArchiveMemory{
					ID:             id,
					UserID:         userID,
					Key:            key,
					Value:          doc["value"],
					Tags:           docTags(doc),
					ArchivedReason: reason,
					CreatedAt:      created,
					ArchivedAt:     now,
				}
				if err := m.docs.Insert(ctx, CollectionArchive, arch.toDoc()); err != nil {
					return moved, fmt.Errorf("memory: archive %q: %w", key, err)
				}
			}
			n, err := m.docs.Delete(ctx, coll, store.Filter{
				Eq: map[string]string{"id": id},
			})
			if err != nil {
				return moved, fmt.Errorf("memory: archive delete %q: %w", key, err)
			}
			if n > 0 {
				moved++
			}
		}
	}
	m.logger.Info("records archived", "user_id", userID, "key", key, "count", moved, "reason", reason)
	return moved, nil
}

// ListHot sweeps expired records first, then returns the user's live Hot
// memories.
func (m *Manager) ListHot(ctx context.Context, userID string) ([]HotMemory, error) {
	if _, err := m.SweepExpired(ctx, userID); err != nil {
		return nil, err
	}
	docs, err := m.docs.Find(ctx, CollectionHot, store.Filter{
		Eq: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: list hot: %w", err)
	}
	out := make([]HotMemory, 0, len(docs))
	for _, doc := range docs {
		rec, err := hotFromDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListCold returns the user's Cold memories.
func (m *Manager) ListCold(ctx context.Context, userID string) ([]ColdMemory, error) {
	docs, err := m.docs.Find(ctx, CollectionCold, store.Filter{
		Eq: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: list cold: %w", err)
	}
	out := make([]ColdMemory, 0, len(docs))
	for _, doc := range docs {
		rec, err := coldFromDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListArchive returns the user's archived memories.
func (m *Manager) ListArchive(ctx context.Context, userID string) ([]ArchiveMemory, error) {
	docs, err := m.docs.Find(ctx, CollectionArchive, store.Filter{
		Eq: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: list archive: %w", err)
	}
	out := make([]ArchiveMemory, 0, len(docs))
	for _, doc := range docs {
		rec, err := archiveFromDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
