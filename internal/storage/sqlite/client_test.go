package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/internal/storage/models"
)

func openClient(t *testing.T, path string) *Client {
	t.Helper()
	c, err := NewClient(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	require.NoError(t, c.InitSchema())
	return c
}

func TestClient_SlotLifecycle(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, filepath.Join(t.TempDir(), "state.db"))
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.Get(ctx, "diagnoses")
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)

	require.NoError(t, c.Put(ctx, "diagnoses", []byte(`[{"id":1}]`)))
	require.NoError(t, c.Put(ctx, "diagnoses", []byte(`[{"id":1},{"id":2}]`)))

	got, err := c.Get(ctx, "diagnoses")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(got))

	require.NoError(t, c.Delete(ctx, "diagnoses"))
	require.NoError(t, c.Delete(ctx, "diagnoses"))
	_, err = c.Get(ctx, "diagnoses")
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
	assert.NoError(t, c.Ping(ctx))
}

func TestClient_HistorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	first := openClient(t, path)
	history := storage.NewHistory(first, "diagnoses")
	rec := models.DiagnosisRecord{
		ID:       77,
		Date:     time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC),
		BodyPart: "head",
		Symptoms: []models.RecordedSymptom{{ID: "s1", Name: "Headache", Severity: 7}},
		PossibleConditions: []models.ScoredCondition{
			{ID: "c3", Name: "Migraine", Description: "m", MatchScore: 100},
		},
	}
	require.NoError(t, history.Append(ctx, rec))
	require.NoError(t, first.Close())

	second := openClient(t, path)
	t.Cleanup(func() { _ = second.Close() })

	got, err := storage.NewHistory(second, "diagnoses").FindByID(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
