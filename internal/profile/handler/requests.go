package handler

// submitProfileRequest carries the three encrypted profile fields, base64
// encoded: learning style, study environment, comprehension level.
type submitProfileRequest struct {
	LearningStyle    []byte `json:"learning_style"`
	StudyEnvironment []byte `json:"study_environment"`
	Comprehension    []byte `json:"comprehension"`
}

// disclosureCallbackRequest is the capability's delivery of a disclosure
// result. The proof, not a bearer token, authenticates this request.
type disclosureCallbackRequest struct {
	RequestID  string   `json:"request_id"`
	Cleartexts []string `json:"cleartexts"`
	Proof      []byte   `json:"proof"`
}
