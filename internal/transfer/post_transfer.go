package transfer

import "time"

// CreatePostRequest is the body of POST /posts on the content API.
type CreatePostRequest struct {
	SocialPageIDs []int64     `json:"social_page_ids"`
	Post          PostPayload `json:"post"`
}

type PostPayload struct {
	MediaURLs       []string          `json:"media_urls"`
	MediaTypes      []string          `json:"media_types"`
	PrimaryMediaURL string            `json:"primary_media_url"`
	Comments        string            `json:"comments"`
	BrandName       string            `json:"brand_name"`
	Status          string            `json:"status"`
	PostType        string            `json:"post_type"`
	PlatformData    map[string]string `json:"platform_data"`
	ScheduledAt     string            `json:"scheduled_at,omitempty"`
}

type CreatePostResponse struct {
	Status string         `json:"status"`
	Posts  []CreatedPost  `json:"posts"`
	Errors []AccountError `json:"errors"`
}

type CreatedPost struct {
	SocialPageID int64     `json:"social_page_id"`
	Platform     string    `json:"platform"`
	Status       string    `json:"status"`
	PublishedAt  time.Time `json:"published_at"`
}

// AccountError tolerates both error field spellings the backend has used.
type AccountError struct {
	SocialPageID int64  `json:"social_page_id"`
	ErrorMessage string `json:"error_message"`
	Err          string `json:"error"`
}

func (e AccountError) Message() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Err
}

// APIErrorBody is the loose failure shape returned by the content API:
// sometimes errors[], sometimes a bare message.
type APIErrorBody struct {
	Errors  []AccountError `json:"errors"`
	Message string         `json:"message"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
