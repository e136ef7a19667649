package service

import (
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

// videoSpinnerTimeoutMS bounds the cosmetic "video loading" spinner. The UI
// clears the spinner after this window whether or not the video ever loads.
const videoSpinnerTimeoutMS = 5000

type PreviewService interface {
	Render(draft *models.DraftPost, items []models.MediaItem, primaryID, tab string) *transfer.Preview
}

type previewService struct{}

func NewPreviewService() PreviewService {
	return &previewService{}
}

// Render is a pure function of the draft state. It never mutates the draft
// and never touches the network.
func (s *previewService) Render(draft *models.DraftPost, items []models.MediaItem, primaryID, tab string) *transfer.Preview {
	p := &transfer.Preview{
		Platform:  tab,
		Caption:   StripMarkup(draft.Content),
		BrandName: draft.BrandName,
	}

	for _, a := range draft.TargetAccounts {
		if a.Platform == tab {
			p.AccountName = a.Name
			p.AccountPicture = a.PictureURL
			break
		}
	}

	for _, it := range items {
		if it.State != models.MediaStateReady {
			continue
		}
		p.Media = append(p.Media, transfer.PreviewMedia{
			URL:     it.RemoteURL,
			Kind:    it.Kind,
			Primary: it.ID == primaryID,
		})
		if it.ID == primaryID && it.Kind == models.MediaKindVideo {
			p.VideoLoading = true
			p.SpinnerTimeoutMS = videoSpinnerTimeoutMS
		}
	}
	p.Placeholder = len(p.Media) == 0

	switch tab {
	case models.PlatformInstagram:
		s.renderInstagram(p, draft.Subtype)
	case models.PlatformLinkedin:
		p.AspectRatio = "1.91:1"
		p.Chrome = []string{"Like", "Comment", "Repost", "Send"}
	case models.PlatformFacebook:
		p.AspectRatio = "1.91:1"
		p.Chrome = []string{"Like", "Comment", "Share"}
	default:
		p.AspectRatio = "1:1"
	}

	return p
}

func (s *previewService) renderInstagram(p *transfer.Preview, subtype string) {
	p.Subtype = subtype
	switch subtype {
	case models.SubtypeReel:
		p.AspectRatio = "9:16"
		p.Chrome = []string{"Reels", "Like", "Comment", "Share", "Audio"}
	case models.SubtypeStory:
		p.AspectRatio = "9:16"
		p.Chrome = []string{"Story", "Progress", "Reply"}
	default:
		p.Subtype = models.SubtypePost
		p.AspectRatio = "1:1"
		p.Chrome = []string{"Like", "Comment", "Share", "Save"}
	}
}
