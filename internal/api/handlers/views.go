package handlers

import "github.com/symptom-checker/backend/internal/storage/models"

type symptomView struct {
	models.RecordedSymptom
	Band models.SeverityBand `json:"band"`
}

// recordView is a DiagnosisRecord as served on the read path: each symptom
// carries its display band. The stored record never holds the band.
type recordView struct {
	models.DiagnosisRecord
	Symptoms []symptomView `json:"symptoms"`
}

func newRecordView(r models.DiagnosisRecord) recordView {
	symptoms := make([]symptomView, len(r.Symptoms))
	for i, s := range r.Symptoms {
		symptoms[i] = symptomView{RecordedSymptom: s, Band: s.Band()}
	}
	return recordView{DiagnosisRecord: r, Symptoms: symptoms}
}

func newRecordViews(records []models.DiagnosisRecord) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		out[i] = newRecordView(r)
	}
	return out
}
