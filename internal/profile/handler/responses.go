package handler

import "time"

type submitProfileResponse struct {
	RecordID uint64 `json:"record_id"`
}

type disclosureRequestResponse struct {
	RequestID string `json:"request_id"`
}

type profileResponse struct {
	RecordID  uint64    `json:"record_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

type disclosedResponse struct {
	Revealed bool     `json:"revealed"`
	Fields   []string `json:"fields"`
}
