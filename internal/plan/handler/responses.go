package handler

import "time"

type disclosureRequestResponse struct {
	RequestID string `json:"request_id"`
}

type planResponse struct {
	RecordID    uint64            `json:"record_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Fields      map[string]string `json:"field_states"`
}

type fieldResponse struct {
	Revealed bool   `json:"revealed"`
	Value    string `json:"value"`
}
