// Package memory implements the tiered memory lifecycle: short lived Hot
// records with a TTL, permanent Cold records, and an append-only Archive.
// Expired Hot records move to the Archive before deletion, never the
// reverse order.
package memory

import (
	"errors"
	"fmt"
	"time"

	"github.com/IvoFFaria/Jarvis-IA/pkg/store"
)

// Collection names in the document store.
const (
	CollectionHot     = "memory_hot"
	CollectionCold    = "memory_cold"
	CollectionArchive = "memory_archive"
)

// ArchivedReasonTTL marks records archived because their TTL elapsed.
const ArchivedReasonTTL = "TTL expiry"

// ErrInvalidRecord rejects records missing a user id or key.
var ErrInvalidRecord = errors.New("memory: invalid record")

// HotMemory is a short lived record that expires after its TTL.
type HotMemory struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Key          string    `json:"key"`
	Value        any       `json:"value"`
	Tags         []string  `json:"tags"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ColdMemory is a permanent record, kept until explicitly archived.
type ColdMemory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchiveMemory is an append-only historical record. Nothing in this
// package ever deletes one.
type ArchiveMemory struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Key            string    `json:"key"`
	Value          any       `json:"value"`
	Tags           []string  `json:"tags"`
	ArchivedReason string    `json:"archived_reason"`
	CreatedAt      time.Time `json:"created_at"`
	ArchivedAt     time.Time `json:"archived_at"`
}

// Timestamps are persisted in the store's fixed-width canonical format so
// that range filters compare chronologically.

func (m HotMemory) toDoc() map[string]any {
	return map[string]any{
		"id":            m.ID,
		"user_id":       m.UserID,
		"key":           m.Key,
		"value":         m.Value,
		"tags":          m.Tags,
		"expires_at":    store.FormatTime(m.ExpiresAt),
		"last_accessed": store.FormatTime(m.LastAccessed),
		"created_at":    store.FormatTime(m.CreatedAt),
	}
}

func (m ColdMemory) toDoc() map[string]any {
	return map[string]any{
		"id":         m.ID,
		"user_id":    m.UserID,
		"key":        m.Key,
		"value":      m.Value,
		"tags":       m.Tags,
		"created_at": store.FormatTime(m.CreatedAt),
		"updated_at": store.FormatTime(m.UpdatedAt),
	}
}

func (m ArchiveMemory) toDoc() map[string]any {
	return map[string]any{
		"id":              m.ID,
		"user_id":         m.UserID,
		"key":             m.Key,
		"value":           m.Value,
		"tags":            m.Tags,
		"archived_reason": m.ArchivedReason,
		"created_at":      store.FormatTime(m.CreatedAt),
		"archived_at":     store.FormatTime(m.ArchivedAt),
	}
}

func hotFromDoc(doc map[string]any) (HotMemory, error) {
	m := HotMemory{
		ID:     docString(doc, "id"),
		UserID: docString(doc, "user_id"),
		Key:    docString(doc, "key"),
		Value:  doc["value"],
		Tags:   docTags(doc),
	}
	var err error
	if m.ExpiresAt, err = docTime(doc, "expires_at"); err != nil {
		return HotMemory{}, err
	}
	if m.LastAccessed, err = docTime(doc, "last_accessed"); err != nil {
		return HotMemory{}, err
	}
	if m.CreatedAt, err = docTime(doc, "created_at"); err != nil {
		return HotMemory{}, err
	}
	return m, nil
}

func coldFromDoc(doc map[string]any) (ColdMemory, error) {
	m := ColdMemory{
		ID:     docString(doc, "id"),
		UserID: docString(doc, "user_id"),
		Key:    docString(doc, "key"),
		Value:  doc["value"],
		Tags:   docTags(doc),
	}
	var err error
	if m.CreatedAt, err = docTime(doc, "created_at"); err != nil {
		return ColdMemory{}, err
	}
	if m.UpdatedAt, err = docTime(doc, "updated_at"); err != nil {
		return ColdMemory{}, err
	}
	return m, nil
}

func archiveFromDoc(doc map[string]any) (ArchiveMemory, error) {
	m := ArchiveMemory{
		ID:             docString(doc, "id"),
		UserID:         docString(doc, "user_id"),
		Key:            docString(doc, "key"),
		Value:          doc["value"],
		Tags:           docTags(doc),
		ArchivedReason: docString(doc, "archived_reason"),
	}
	var err error
	if m.CreatedAt, err = docTime(doc, "created_at"); err != nil {
		return ArchiveMemory{}, err
	}
	if m.ArchivedAt, err = docTime(doc, "archived_at"); err != nil {
		return ArchiveMemory{}, err
	}
	return m, nil
}

func docString(doc map[string]any, field string) string {
	s, _ := doc[field].(string)
	return s
}

func docTime(doc map[string]any, field string) (time.Time, error) {
	s, ok := doc[field].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("memory: document field %q is not a timestamp", field)
	}
	t, err := store.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("memory: document field %q: %w", field, err)
	}
	return t, nil
}

// docTags tolerates both []string and the []any produced by a JSON
// round trip through the store.
func docTags(doc map[string]any) []string {
	switch v := doc["tags"].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}
