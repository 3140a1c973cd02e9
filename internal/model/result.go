package model

// Status classifies the outcome of processing one event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// FeedbackResult is the per-event outcome of a feedback attempt. It is
// produced fresh for every event and folded into the delivery summary;
// nothing is persisted.
type FeedbackResult struct {
	EventIndex      int    `json:"event_index"`
	UserID          string `json:"user_id,omitempty"`
	Status          Status `json:"status"`
	Reason          string `json:"reason,omitempty"`
	Error           string `json:"error,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	VerificationSID string `json:"verification_sid,omitempty"`
}

// BatchSummary is the aggregate returned per hook delivery.
// len(Results) always equals TotalEvents, however many events failed.
type BatchSummary struct {
	TotalEvents int              `json:"total_events"`
	Results     []FeedbackResult `json:"results"`
}
