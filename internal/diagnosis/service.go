// Package diagnosis runs a symptom check end to end: catalog reads,
// condition ranking, building and persisting the session record, and the
// stored user profile.
package diagnosis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/symptom-checker/backend/internal/catalog"
	"github.com/symptom-checker/backend/internal/matcher"
	"github.com/symptom-checker/backend/internal/metrics"
	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/apperr"
	"github.com/symptom-checker/backend/pkg/logger"
)

const msgNoSymptoms = "Please select at least one symptom"

type BuildRequest struct {
	BodyPart       string                   `json:"bodyPart"`
	Symptoms       []models.SelectedSymptom `json:"symptoms"`
	AdditionalInfo string                   `json:"additionalInfo"`
}

type Service struct {
	catalog     *catalog.Catalog
	matcher     *matcher.Matcher
	history     storage.HistoryStore
	profiles    storage.ProfileStore
	ids         IDGenerator
	now         func() time.Time
	sleep       func(time.Duration)
	submitDelay time.Duration
	maxNotes    int
}

type Option func(*Service)

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSubmitDelay pauses BuildRecord before the record is assembled.
func WithSubmitDelay(d time.Duration) Option {
	return func(s *Service) { s.submitDelay = d }
}

func WithMaxNotesLength(n int) Option {
	return func(s *Service) { s.maxNotes = n }
}

func NewService(cat *catalog.Catalog, history storage.HistoryStore, profiles storage.ProfileStore, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		matcher:  matcher.New(cat),
		history:  history,
		profiles: profiles,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewClockSequence(s.now)
	}
	return s
}

func (s *Service) ListBodyParts() []catalog.BodyPart {
	return s.catalog.BodyParts()
}

func (s *Service) ListSymptoms(bodyPart, search string) []catalog.Symptom {
	return s.catalog.FilterSymptoms(catalog.SymptomFilter{BodyPart: bodyPart, Search: search})
}

func (s *Service) GetSymptom(id string) (catalog.Symptom, error) {
	return s.catalog.Symptom(id)
}

func (s *Service) GetCondition(id string) (catalog.Condition, error) {
	return s.catalog.Condition(id)
}

func (s *Service) RankConditions(symptomIDs []string) ([]models.ScoredCondition, error) {
	if len(symptomIDs) == 0 {
		metrics.RankingsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("diagnosis.rank", msgNoSymptoms)
	}
	return s.rank(symptomIDs), nil
}

func (s *Service) rank(symptomIDs []string) []models.ScoredCondition {
	ranked := s.matcher.Rank(symptomIDs)
	if len(ranked) == 0 {
		metrics.RankingsTotal.WithLabelValues("no_match").Inc()
		return ranked
	}
	metrics.RankingsTotal.WithLabelValues("matched").Inc()
	metrics.MatchScore.Observe(float64(ranked[0].MatchScore))
	return ranked
}

// BuildRecord validates the request, ranks the selected symptoms and appends
// the resulting record to history. When only the append fails the record is
// returned together with the persistence error.
func (s *Service) BuildRecord(ctx context.Context, req BuildRequest) (*models.DiagnosisRecord, error) {
	symptoms, err := s.resolveSymptoms(req.Symptoms)
	if err != nil {
		return nil, err
	}
	bodyPart := strings.TrimSpace(req.BodyPart)
	if bodyPart == "" {
		return nil, apperr.Validation("diagnosis.build", "Please select a body part")
	}
	if _, err := s.catalog.BodyPart(bodyPart); err != nil {
		return nil, apperr.Validation("diagnosis.build", fmt.Sprintf("unknown body part %q", bodyPart))
	}
	notes, err := NormalizeNotes(req.AdditionalInfo, s.maxNotes)
	if err != nil {
		return nil, err
	}

	if s.submitDelay > 0 {
		s.sleep(s.submitDelay)
	}

	ids := make([]string, len(symptoms))
	for i, sym := range symptoms {
		ids[i] = sym.ID
	}

	record := &models.DiagnosisRecord{
		ID:                 s.ids.Next(),
		Date:               storage.NormalizeDate(s.now()),
		BodyPart:           bodyPart,
		Symptoms:           symptoms,
		AdditionalInfo:     notes,
		PossibleConditions: s.rank(ids),
	}
	metrics.SelectedSymptoms.Observe(float64(len(symptoms)))

	if err := s.history.Append(ctx, *record); err != nil {
		metrics.RecordsCreated.WithLabelValues("unpersisted").Inc()
		logger.Error("Failed to persist diagnosis record",
			zap.Int64("diagnosis_id", record.ID),
			zap.Error(err),
		)
		return record, err
	}

	metrics.RecordsCreated.WithLabelValues("persisted").Inc()
	logger.Info("Diagnosis record created",
		zap.Int64("diagnosis_id", record.ID),
		zap.String("body_part", bodyPart),
		zap.Int("symptoms", len(symptoms)),
		zap.Int("conditions", len(record.PossibleConditions)),
	)
	return record, nil
}

func (s *Service) resolveSymptoms(selected []models.SelectedSymptom) ([]models.RecordedSymptom, error) {
	if len(selected) == 0 {
		return nil, apperr.Validation("diagnosis.build", msgNoSymptoms)
	}

	seen := make(map[string]struct{}, len(selected))
	out := make([]models.RecordedSymptom, 0, len(selected))
	for _, sel := range selected {
		if _, dup := seen[sel.ID]; dup {
			return nil, apperr.Validation("diagnosis.build", fmt.Sprintf("symptom %s selected more than once", sel.ID))
		}
		seen[sel.ID] = struct{}{}

		if sel.Severity < models.MinSeverity || sel.Severity > models.MaxSeverity {
			return nil, apperr.Validation("diagnosis.build",
				fmt.Sprintf("severity for symptom %s must be between %d and %d", sel.ID, models.MinSeverity, models.MaxSeverity))
		}
		sym, err := s.catalog.Symptom(sel.ID)
		if err != nil {
			return nil, apperr.Validation("diagnosis.build", fmt.Sprintf("unknown symptom %q", sel.ID))
		}
		out = append(out, models.RecordedSymptom{ID: sym.ID, Name: sym.Name, Severity: sel.Severity})
	}
	return out, nil
}

func (s *Service) GetRecord(ctx context.Context, id int64) (models.DiagnosisRecord, error) {
	return s.history.FindByID(ctx, id)
}

// ListHistory returns every record, newest first.
func (s *Service) ListHistory(ctx context.Context) ([]models.DiagnosisRecord, error) {
	records, err := s.history.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

func (s *Service) LoadProfile(ctx context.Context) (models.UserProfile, error) {
	return s.profiles.Load(ctx)
}

func (s *Service) SaveProfile(ctx context.Context, profile models.UserProfile) error {
	return s.profiles.Save(ctx, profile)
}
