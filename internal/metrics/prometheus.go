package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_checker_rankings_total",
			Help: "Total number of condition rankings computed",
		},
		[]string{"outcome"},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "symptom_checker_match_score",
			Help:    "Match score of the top ranked condition",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	SelectedSymptoms = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "symptom_checker_selected_symptoms",
			Help:    "Number of symptoms selected per submission",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 12},
		},
	)

	RecordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_checker_records_created_total",
			Help: "Diagnosis records built, by persistence status",
		},
		[]string{"status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "symptom_checker_store_operation_duration_seconds",
			Help:    "Duration of history and profile store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"store", "operation"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_checker_store_errors_total",
			Help: "Failed store operations",
		},
		[]string{"store", "operation"},
	)

	CorruptSlotReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_checker_corrupt_slot_reads_total",
			Help: "Slot payloads that could not be decoded and were read as empty",
		},
		[]string{"slot"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "symptom_checker_breaker_state",
			Help: "Circuit breaker state per slot backend (0 closed, 1 half-open, 2 open)",
		},
		[]string{"backend"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RankingsTotal,
			MatchScore,
			SelectedSymptoms,
			RecordsCreated,
			StoreOperationDuration,
			StoreErrors,
			CorruptSlotReads,
			BreakerState,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
