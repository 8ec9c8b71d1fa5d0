package entities

// Definition is a key term mentioned in a lecture
type Definition struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Summary is the structured digest of a lecture
type Summary struct {
	MainTopics      []string     `json:"main_topics"`
	KeyDefinitions  []Definition `json:"key_definitions"`
	ImportantFacts  []string     `json:"important_facts"`
	Assignments     []string     `json:"assignments"`
	BriefSummary    string       `json:"brief_summary"`
	DetailedSummary string       `json:"detailed_summary,omitempty"`
	Language        string       `json:"language,omitempty"`
}

// Normalize replaces nil lists so the stored object always has the full key set
func (s *Summary) Normalize() {
	if s.MainTopics == nil {
		s.MainTopics = []string{}
	}
	if s.KeyDefinitions == nil {
		s.KeyDefinitions = []Definition{}
	}
	if s.ImportantFacts == nil {
		s.ImportantFacts = []string{}
	}
	if s.Assignments == nil {
		s.Assignments = []string{}
	}
}
