package types

// ParsedReference is the result of validating one token of pasted input.
// CanonicalID is empty exactly when Valid is false.
type ParsedReference struct {
	SourceText  string `json:"sourceText"`
	CanonicalID string `json:"canonicalId,omitempty"`
	Valid       bool   `json:"valid"`
	ErrorReason string `json:"errorReason,omitempty"`
}
