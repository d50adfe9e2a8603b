package models

import "time"

const (
	MinSeverity     = 1
	MaxSeverity     = 10
	DefaultSeverity = 5
)

type SelectedSymptom struct {
	ID       string `json:"id" validate:"required"`
	Severity int    `json:"severity" validate:"min=1,max=10"`
}

type ScoredCondition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MatchScore  int    `json:"matchScore"`
}

type RecordedSymptom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Severity int    `json:"severity"`
}

type DiagnosisRecord struct {
	ID                 int64             `json:"id"`
	Date               time.Time         `json:"date"`
	BodyPart           string            `json:"bodyPart"`
	Symptoms           []RecordedSymptom `json:"symptoms"`
	AdditionalInfo     string            `json:"additionalInfo"`
	PossibleConditions []ScoredCondition `json:"possibleConditions"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type UserProfile struct {
	FirstName        string           `json:"firstName" validate:"notblank,max=100"`
	LastName         string           `json:"lastName" validate:"notblank,max=100"`
	DateOfBirth      string           `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender           string           `json:"gender" validate:"omitempty,oneof=male female other prefer-not-to-say"`
	Height           string           `json:"height"`
	Weight           string           `json:"weight"`
	Allergies        string           `json:"allergies"`
	Medications      string           `json:"medications"`
	Conditions       string           `json:"conditions"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
}

type SeverityBand string

const (
	BandLow      SeverityBand = "low"
	BandModerate SeverityBand = "moderate"
	BandHigh     SeverityBand = "high"
)

func BandFor(severity int) SeverityBand {
	switch {
	case severity >= 7:
		return BandHigh
	case severity >= 4:
		return BandModerate
	default:
		return BandLow
	}
}

func (s RecordedSymptom) Band() SeverityBand {
	return BandFor(s.Severity)
}
