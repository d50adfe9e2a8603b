package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/apperr"
	"github.com/symptom-checker/backend/pkg/logger"
)

type Profiles struct {
	slots Slots
	slot  string
}

func NewProfiles(slots Slots, slot string) *Profiles {
	return &Profiles{slots: slots, slot: slot}
}

// Load returns the blank profile when nothing has been saved yet or the
// stored payload cannot be decoded.
func (p *Profiles) Load(ctx context.Context) (_ models.UserProfile, err error) {
	defer observe("profile", "load", time.Now(), &err)

	payload, err := p.slots.Get(ctx, p.slot)
	if errors.Is(err, ErrSlotNotFound) {
		return models.UserProfile{}, nil
	}
	if err != nil {
		return models.UserProfile{}, apperr.Persistence("profile.load", err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		metrics.CorruptSlotReads.WithLabelValues(p.slot).Inc()
		logger.Warn("Profile slot is corrupt, using blank profile",
			zap.String("slot", p.slot),
			zap.Error(err),
		)
		return models.UserProfile{}, nil
	}
	return profile, nil
}

func (p *Profiles) Save(ctx context.Context, profile models.UserProfile) (err error) {
	defer observe("profile", "save", time.Now(), &err)

	payload, err := json.Marshal(profile)
	if err != nil {
		return apperr.Persistence("profile.save", fmt.Errorf("failed to encode profile: %w", err))
	}
	if err := p.slots.Put(ctx, p.slot, payload); err != nil {
		return apperr.Persistence("profile.save", err)
	}

	logger.Info("Profile saved", zap.String("backend", p.slots.Name()))
	return nil
}
