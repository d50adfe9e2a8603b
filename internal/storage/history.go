package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/apperr"
	"github.com/symptom-checker/backend/pkg/logger"
)

var errCorruptSlot = errors.New("slot payload is not valid JSON")

// History keeps every diagnosis record as one JSON array in a single slot.
type History struct {
	slots Slots
	slot  string
	// serialises read-modify-write in Append
	mu sync.Mutex
}

func NewHistory(slots Slots, slot string) *History {
	return &History{slots: slots, slot: slot}
}

func (h *History) Append(ctx context.Context, record models.DiagnosisRecord) (err error) {
	defer observe("history", "append", time.Now(), &err)

	h.mu.Lock()
	defer h.mu.Unlock()

	records, corrupt, err := h.read(ctx)
	if err != nil {
		return err
	}
	if corrupt {
		// Refuse to overwrite what we cannot read.
		return apperr.Persistence("history.append", fmt.Errorf("slot %q: %w", h.slot, errCorruptSlot))
	}

	record.Date = NormalizeDate(record.Date)
	records = append(records, record)
	payload, err := json.Marshal(records)
	if err != nil {
		return apperr.Persistence("history.append", fmt.Errorf("failed to encode history: %w", err))
	}
	if err := h.slots.Put(ctx, h.slot, payload); err != nil {
		return apperr.Persistence("history.append", err)
	}

	logger.Debug("Diagnosis record appended",
		zap.Int64("diagnosis_id", record.ID),
		zap.Int("history_size", len(records)),
		zap.String("backend", h.slots.Name()),
	)
	return nil
}

// NormalizeDate is the form dates are stored in: UTC at millisecond
// precision, which survives a JSON round trip unchanged.
func NormalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ListAll returns the records in insertion order.
func (h *History) ListAll(ctx context.Context) (_ []models.DiagnosisRecord, err error) {
	defer observe("history", "list", time.Now(), &err)

	records, _, err := h.read(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (h *History) FindByID(ctx context.Context, id int64) (_ models.DiagnosisRecord, err error) {
	defer observe("history", "find", time.Now(), &err)

	records, _, err := h.read(ctx)
	if err != nil {
		return models.DiagnosisRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.DiagnosisRecord{}, apperr.NotFound("diagnosis", id)
}

func (h *History) Clear(ctx context.Context) (err error) {
	defer observe("history", "clear", time.Now(), &err)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.slots.Delete(ctx, h.slot); err != nil {
		return apperr.Persistence("history.clear", err)
	}
	logger.Info("Diagnosis history cleared", zap.String("backend", h.slots.Name()))
	return nil
}

// read treats a missing slot as empty and a corrupt slot as empty plus a
// corrupt flag.
func (h *History) read(ctx context.Context) ([]models.DiagnosisRecord, bool, error) {
	records := []models.DiagnosisRecord{}

	payload, err := h.slots.Get(ctx, h.slot)
	if errors.Is(err, ErrSlotNotFound) {
		return records, false, nil
	}
	if err != nil {
		return nil, false, apperr.Persistence("history.read", err)
	}

	if err := json.Unmarshal(payload, &records); err != nil {
		metrics.CorruptSlotReads.WithLabelValues(h.slot).Inc()
		logger.Warn("History slot is corrupt, reading as empty",
			zap.String("slot", h.slot),
			zap.String("backend", h.slots.Name()),
			zap.Error(err),
		)
		return []models.DiagnosisRecord{}, true, nil
	}
	if records == nil {
		records = []models.DiagnosisRecord{}
	}
	return records, false, nil
}

func observe(store, operation string, start time.Time, err *error) {
	metrics.StoreOperationDuration.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
	if *err != nil && !apperr.IsNotFound(*err) {
		metrics.StoreErrors.WithLabelValues(store, operation).Inc()
	}
}
