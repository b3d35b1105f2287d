package replica

// Profile is the compiled persona definition for one upload session.
// Immutable once published; replacing it invalidates any chat session bound
// to the prior instruction.
type Profile struct {
	Persona     string `json:"persona"`
	Counterpart string `json:"counterpart"`

	StyleAnalysis string `json:"styleAnalysis"`
	Relationship  string `json:"relationship"`
	Patterns      string `json:"patterns"`
	Rules         string `json:"rules"`
	Psychology    string `json:"psychology"`

	Instruction string `json:"instruction"`
}

// Progress reports synthesis-job progress for polling clients.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}
