// Package storage persists diagnosis history and the user profile as JSON
// payloads in named slots. Slot backends live in the sub-packages.
package storage

import (
	"context"
	"errors"

	"github.com/symptom-checker/backend/internal/storage/models"
)

var ErrSlotNotFound = errors.New("storage: slot not found")

// Slots is a byte-level key/value surface keyed by slot name.
// Get returns ErrSlotNotFound for a missing slot; Delete of a missing slot
// is not an error.
type Slots interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
	Name() string
}

type HistoryStore interface {
	Append(ctx context.Context, record models.DiagnosisRecord) error
	ListAll(ctx context.Context) ([]models.DiagnosisRecord, error)
	FindByID(ctx context.Context, id int64) (models.DiagnosisRecord, error)
	Clear(ctx context.Context) error
}

type ProfileStore interface {
	Load(ctx context.Context) (models.UserProfile, error)
	Save(ctx context.Context, profile models.UserProfile) error
}
