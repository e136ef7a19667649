package transfer

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/composeflow/internal/models"
)

type CustomClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// DraftUpdate carries partial edits to the draft; nil fields are untouched.
type DraftUpdate struct {
	Content   *string `json:"content"`
	BrandName *string `json:"brand_name"`
	Subtype   *string `json:"subtype"`
	Cursor    *int    `json:"cursor"`
}

type AccountToggle struct {
	Account  models.TargetAccount `json:"account"`
	Selected bool                 `json:"selected"`
}

type ScheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"` // 2006-01-02T15:04
}

type MediaAction struct {
	ID string `json:"id"`
}

type EditedMedia struct {
	ID        string `json:"id"`
	RemoteURL string `json:"remote_url"`
}
