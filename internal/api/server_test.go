package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-checker/backend/internal/catalog"
	"github.com/symptom-checker/backend/internal/diagnosis"
	"github.com/symptom-checker/backend/internal/storage"
	"github.com/symptom-checker/backend/internal/storage/memory"
	"github.com/symptom-checker/backend/internal/storage/models"
	"github.com/symptom-checker/backend/pkg/config"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// downSlots fails every write.
type downSlots struct {
	*memory.Slots
}

func (downSlots) Put(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"*"}, IsDevelopment: true},
		RateLimit: config.RateLimitConfig{MaxRequestsPerMinute: 1000},
	}
}

func newTestApp(t *testing.T, slots storage.Slots, opts Options) *fiber.App {
	t.Helper()
	svc := diagnosis.NewService(catalog.Default(),
		storage.NewHistory(slots, "diagnoses"),
		storage.NewProfiles(slots, "userProfile"),
		diagnosis.WithMaxNotesLength(50),
	)
	return NewApp(testConfig(), svc, opts)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestCatalogRoutes(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	code, body := do(t, app, http.MethodGet, "/api/v1/body-parts", "")
	require.Equal(t, http.StatusOK, code)
	var parts struct {
		BodyParts []catalog.BodyPart `json:"bodyParts"`
	}
	require.NoError(t, json.Unmarshal(body, &parts))
	assert.Len(t, parts.BodyParts, 8)
	assert.Equal(t, "head", parts.BodyParts[0].ID)

	code, body = do(t, app, http.MethodGet, "/api/v1/symptoms?bodyPart=head&q=rash", "")
	require.Equal(t, http.StatusOK, code)
	var syms struct {
		Symptoms []catalog.Symptom `json:"symptoms"`
	}
	require.NoError(t, json.Unmarshal(body, &syms))
	require.Len(t, syms.Symptoms, 1)
	assert.Equal(t, "s10", syms.Symptoms[0].ID)

	code, _ = do(t, app, http.MethodGet, "/api/v1/symptoms/s1", "")
	assert.Equal(t, http.StatusOK, code)

	code, body = do(t, app, http.MethodGet, "/api/v1/conditions/c3", "")
	require.Equal(t, http.StatusOK, code)
	var cond catalog.Condition
	require.NoError(t, json.Unmarshal(body, &cond))
	assert.Equal(t, "Migraine", cond.Name)
	assert.NotEmpty(t, cond.Recommendations)

	code, body = do(t, app, http.MethodGet, "/api/v1/conditions/c99", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"condition c99 not found"}`, string(body))
}

func TestRankings(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	code, body := do(t, app, http.MethodPost, "/api/v1/rankings", `{"symptomIds":["s1"]}`)
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Conditions []models.ScoredCondition `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Conditions, 2)
	assert.Equal(t, "c3", out.Conditions[0].ID)
	assert.Equal(t, 100, out.Conditions[0].MatchScore)

	code, body = do(t, app, http.MethodPost, "/api/v1/rankings", `{"symptomIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "Please select at least one symptom")
}

func TestDiagnosisLifecycle(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	code, body := do(t, app, http.MethodPost, "/api/v1/diagnoses",
		`{"bodyPart":"head","symptoms":[{"id":"s1","severity":7}],"additionalInfo":"since noon"}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	var created models.DiagnosisRecord
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Headache", created.Symptoms[0].Name)

	code, body = do(t, app, http.MethodGet, "/api/v1/diagnoses/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusOK, code)
	var fetched models.DiagnosisRecord
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created, fetched)

	code, body = do(t, app, http.MethodGet, "/api/v1/diagnoses", "")
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Diagnoses []models.DiagnosisRecord `json:"diagnoses"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Diagnoses, 1)

	code, _ = do(t, app, http.MethodDelete, "/api/v1/diagnoses", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/diagnoses/"+jsonInt(created.ID), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, app, http.MethodGet, "/api/v1/diagnoses/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDiagnosisReads_CarrySeverityBand(t *testing.T) {
	ctx := context.Background()
	slots := memory.NewSlots()
	app := newTestApp(t, slots, Options{})

	code, body := do(t, app, http.MethodPost, "/api/v1/diagnoses",
		`{"bodyPart":"chest","symptoms":[{"id":"s3","severity":8},{"id":"s5","severity":4},{"id":"s4","severity":2}]}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	var created models.DiagnosisRecord
	require.NoError(t, json.Unmarshal(body, &created))

	type bandedRecord struct {
		Symptoms []struct {
			ID       string `json:"id"`
			Severity int    `json:"severity"`
			Band     string `json:"band"`
		} `json:"symptoms"`
	}
	wantBands := []string{"high", "moderate", "low"}

	code, body = do(t, app, http.MethodGet, "/api/v1/diagnoses/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusOK, code)
	var one bandedRecord
	require.NoError(t, json.Unmarshal(body, &one))
	require.Len(t, one.Symptoms, 3)
	for i, want := range wantBands {
		assert.Equal(t, want, one.Symptoms[i].Band, "symptom %s", one.Symptoms[i].ID)
	}

	var fetched models.DiagnosisRecord
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created, fetched)

	code, body = do(t, app, http.MethodGet, "/api/v1/diagnoses", "")
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Diagnoses []bandedRecord `json:"diagnoses"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Diagnoses, 1)
	assert.Equal(t, "high", list.Diagnoses[0].Symptoms[0].Band)

	stored, err := slots.Get(ctx, "diagnoses")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "band")
}

func TestCreateDiagnosis_Validation(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{"bodyPart":"head","symptoms":[]}`, "Please select at least one symptom"},
		{"severity", `{"bodyPart":"head","symptoms":[{"id":"s1","severity":11}]}`, "severity"},
		{"malformed", `{"bodyPart":`, "Invalid request body"},
		{"notes too long", `{"bodyPart":"head","symptoms":[{"id":"s1","severity":5}],"additionalInfo":"` + strings.Repeat("x", 51) + `"}`, "at most 50 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, app, http.MethodPost, "/api/v1/diagnoses", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, string(body), tc.want)
		})
	}

	code, body := do(t, app, http.MethodGet, "/api/v1/diagnoses", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"diagnoses":[]}`, string(body))
}

func TestCreateDiagnosis_PersistenceFailureCarriesRecord(t *testing.T) {
	app := newTestApp(t, downSlots{memory.NewSlots()}, Options{})

	code, body := do(t, app, http.MethodPost, "/api/v1/diagnoses",
		`{"bodyPart":"chest","symptoms":[{"id":"s3","severity":5}]}`)
	require.Equal(t, http.StatusInternalServerError, code)

	var out struct {
		Error  string                 `json:"error"`
		Record models.DiagnosisRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.Error)
	assert.Equal(t, "chest", out.Record.BodyPart)
	assert.NotEmpty(t, out.Record.PossibleConditions)
}

func TestProfileRoutes(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	code, body := do(t, app, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, code)
	var blank models.UserProfile
	require.NoError(t, json.Unmarshal(body, &blank))
	assert.Equal(t, models.UserProfile{}, blank)

	code, body = do(t, app, http.MethodPut, "/api/v1/profile", `{"firstName":"Jo"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "lastName")

	code, body = do(t, app, http.MethodPut, "/api/v1/profile", `{"firstName":"Jo","lastName":"Doe","gender":"alien"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "gender")

	code, _ = do(t, app, http.MethodPut, "/api/v1/profile",
		`{"firstName":"Jo","lastName":"Doe","gender":"female","emergencyContact":{"name":"Sam","relationship":"sibling","phone":"555"}}`)
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, app, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, code)
	var saved models.UserProfile
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, "Doe", saved.LastName)
	assert.Equal(t, "sibling", saved.EmergencyContact.Relationship)
}

func TestHealthAndReady(t *testing.T) {
	healthy := newTestApp(t, memory.NewSlots(), Options{Ready: pingFunc(func(context.Context) error { return nil })})
	code, _ := do(t, healthy, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, healthy, http.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, http.StatusOK, code)

	down := newTestApp(t, memory.NewSlots(), Options{Ready: pingFunc(func(context.Context) error { return errors.New("down") })})
	code, _ = do(t, down, http.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestUnsupportedContentType(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rankings", strings.NewReader("s1"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, memory.NewSlots(), Options{})
	code, body := do(t, app, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), "error")
}

func jsonInt(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
