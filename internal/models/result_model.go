package models

import "time"

// PublishResult is the per-attempt outcome surfaced after a publish, draft
// or schedule action. It is held only until the UI reads it.
type PublishResult struct {
	Status    string          `json:"status"` // success, partial_success, failed
	Accounts  []AccountResult `json:"accounts"`
	Message   string          `json:"message,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type AccountResult struct {
	AccountID   int64     `json:"account_id"`
	Platform    string    `json:"platform,omitempty"`
	Success     bool      `json:"success"`
	PostStatus  string    `json:"post_status,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

const (
	ResultStatusSuccess        = "success"
	ResultStatusPartialSuccess = "partial_success"
	ResultStatusFailed         = "failed"
)
