package handler

// submitPlanRequest carries the three encrypted plan fields, base64 encoded:
// method, difficulty, pacing.
type submitPlanRequest struct {
	Method     []byte `json:"method"`
	Difficulty []byte `json:"difficulty"`
	Pacing     []byte `json:"pacing"`
}

// fieldCallbackRequest is the capability's delivery of a single plan-field
// disclosure result.
type fieldCallbackRequest struct {
	RequestID string `json:"request_id"`
	Cleartext string `json:"cleartext"`
	Proof     []byte `json:"proof"`
}
