package models

import "time"

type TargetAccount struct {
	ID         int64  `json:"id"`
	SocialID   string `json:"social_id"`
	Name       string `json:"name"`
	Platform   string `json:"platform"`
	PictureURL string `json:"picture_url"`
}

// DraftPost is the in-progress post owned by one composer session.
// targetAccounts are unique by id, kept in selection order.
type DraftPost struct {
	Content        string          `json:"content"`
	TargetAccounts []TargetAccount `json:"target_accounts"`
	BrandName      string          `json:"brand_name"`
	Subtype        string          `json:"subtype"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformLinkedin  = "linkedin"
	PlatformFacebook  = "facebook"
)

const (
	SubtypePost  = "post"
	SubtypeReel  = "reel"
	SubtypeStory = "story"
)

const (
	PostStatusPublish   = "publish"
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
)

func (d *DraftPost) HasAccount(id int64) bool {
	for _, a := range d.TargetAccounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (d *DraftPost) AddAccount(a TargetAccount) {
	if d.HasAccount(a.ID) {
		return
	}
	d.TargetAccounts = append(d.TargetAccounts, a)
}

func (d *DraftPost) RemoveAccount(id int64) {
	for i, a := range d.TargetAccounts {
		if a.ID == id {
			d.TargetAccounts = append(d.TargetAccounts[:i], d.TargetAccounts[i+1:]...)
			return
		}
	}
}

// TextOnlyAllowed reports whether every target platform accepts a post
// without media. Only linkedin does.
func (d *DraftPost) TextOnlyAllowed() bool {
	for _, a := range d.TargetAccounts {
		if a.Platform != PlatformLinkedin {
			return false
		}
	}
	return true
}

func (d *DraftPost) HasPlatform(platform string) bool {
	for _, a := range d.TargetAccounts {
		if a.Platform == platform {
			return true
		}
	}
	return false
}

func (d *DraftPost) AccountIDs() []int64 {
	ids := make([]int64, 0, len(d.TargetAccounts))
	for _, a := range d.TargetAccounts {
		ids = append(ids, a.ID)
	}
	return ids
}

func (d *DraftPost) Reset() {
	d.Content = ""
	d.TargetAccounts = nil
	d.BrandName = ""
	d.Subtype = SubtypePost
	d.ScheduledAt = time.Time{}
}
