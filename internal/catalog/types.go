package catalog

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityChronic  Severity = "chronic"
	SeverityVaries   Severity = "varies"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeverityChronic, SeverityVaries:
		return true
	}
	return false
}

type BodyPart struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon"`
}

type Symptom struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	BodyParts   []string `json:"bodyParts" yaml:"bodyParts"`
}

// HasBodyPart reports whether the symptom is tagged with the body part.
func (s Symptom) HasBodyPart(id string) bool {
	for _, bp := range s.BodyParts {
		if bp == id {
			return true
		}
	}
	return false
}

type Condition struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Symptoms        []string `json:"symptoms" yaml:"symptoms"`
	Severity        Severity `json:"severity" yaml:"severity"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

func (s Symptom) clone() Symptom {
	s.BodyParts = append([]string(nil), s.BodyParts...)
	return s
}

func (c Condition) clone() Condition {
	c.Symptoms = append([]string(nil), c.Symptoms...)
	c.Recommendations = append([]string(nil), c.Recommendations...)
	return c
}
