package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

type PipelineState int32

const (
	PipelineIdle PipelineState = iota
	PipelineValidating
	PipelineSubmitting
	PipelineReporting
)

func (s PipelineState) String() string {
	switch s {
	case PipelineValidating:
		return "validating"
	case PipelineSubmitting:
		return "submitting"
	case PipelineReporting:
		return "reporting"
	default:
		return "idle"
	}
}

var (
	ErrPublishInFlight  = errors.New("a publish is already in flight for this draft")
	ErrNoTargetAccounts = errors.New("select at least one account to post to")
	ErrEmptyCaption     = errors.New("caption cannot be empty")
	ErrMediaRequired    = errors.New("add at least one image or video")
	ErrMissingSchedule  = errors.New("pick a date and time to schedule the post")
)

// IsValidationError reports whether err was raised before any network call.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoTargetAccounts) ||
		errors.Is(err, ErrEmptyCaption) ||
		errors.Is(err, ErrMediaRequired) ||
		errors.Is(err, ErrMissingSchedule)
}

// PostScheduler defers a create-post request until its scheduled time. The
// asynq-backed implementation lives in internal/queue.
type PostScheduler interface {
	Schedule(ctx context.Context, token string, req *transfer.CreatePostRequest, delay time.Duration) error
}

// ProgressFunc receives the cosmetic progress labels emitted while a submit
// is outstanding. The labels are presentation only; the server call behind
// them is a single atomic request.
type ProgressFunc func(sessionID, label string)

var progressLabels = []string{
	"Preparing your post...",
	"Sending to platforms...",
	"Almost there...",
}

const progressInterval = 700 * time.Millisecond

type PublishService interface {
	Run(ctx context.Context, sess *models.Session, cs *ComposerSession, status string) (*models.PublishResult, error)
}

type publishService struct {
	client    *ContentClient
	scheduler PostScheduler
	progress  ProgressFunc
}

func NewPublishService(client *ContentClient, scheduler PostScheduler, progress ProgressFunc) PublishService {
	return &publishService{client: client, scheduler: scheduler, progress: progress}
}

// Run drives one pipeline invocation: Idle -> Validating -> Submitting ->
// Reporting -> Idle. Exactly one invocation may be active per session; a
// rejected validation or a failed submit returns to Idle with the draft
// untouched, a successful terminal action resets the draft and media queue.
func (s *publishService) Run(ctx context.Context, sess *models.Session, cs *ComposerSession, status string) (*models.PublishResult, error) {
	if !cs.transition(PipelineIdle, PipelineValidating) {
		return nil, ErrPublishInFlight
	}

	if err := s.validate(cs, status); err != nil {
		cs.setState(PipelineIdle)
		slog.Info(err.Error())
		return nil, err
	}

	cs.transition(PipelineValidating, PipelineSubmitting)
	req := s.buildRequest(cs, status)

	stop := s.startProgress(cs.ID)
	resp, err := s.submit(ctx, sess, cs, status, req)
	close(stop)

	if err != nil {
		// draft preserved so the user can correct and retry
		cs.setState(PipelineIdle)
		return nil, err
	}

	cs.transition(PipelineSubmitting, PipelineReporting)
	result := s.report(cs, resp)

	cs.mu.Lock()
	cs.Draft.Reset()
	cs.mu.Unlock()
	cs.Media.Reset()

	cs.setResult(result)
	cs.setState(PipelineIdle)
	return result, nil
}

func (s *publishService) validate(cs *ComposerSession, status string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if len(cs.Draft.TargetAccounts) == 0 {
		return ErrNoTargetAccounts
	}
	if StripMarkup(cs.Draft.Content) == "" {
		return ErrEmptyCaption
	}

	ready, _ := cs.Media.Ready()
	if len(ready) == 0 && !cs.Draft.TextOnlyAllowed() {
		return ErrMediaRequired
	}

	if status == models.PostStatusScheduled && cs.Draft.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	return nil
}

func (s *publishService) buildRequest(cs *ComposerSession, status string) *transfer.CreatePostRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	ready, primaryURL := cs.Media.Ready()

	mediaURLs := make([]string, 0, len(ready))
	mediaTypes := make([]string, 0, len(ready))
	for _, it := range ready {
		mediaURLs = append(mediaURLs, it.RemoteURL)
		mediaTypes = append(mediaTypes, it.Kind)
	}

	postType := models.SubtypePost
	platformData := map[string]string{}
	if cs.Draft.HasPlatform(models.PlatformInstagram) {
		subtype := cs.Draft.Subtype
		if subtype == "" {
			subtype = models.SubtypePost
		}
		postType = subtype
		platformData["instagram_type"] = subtype
	}

	req := &transfer.CreatePostRequest{
		SocialPageIDs: cs.Draft.AccountIDs(),
		Post: transfer.PostPayload{
			MediaURLs:       mediaURLs,
			MediaTypes:      mediaTypes,
			PrimaryMediaURL: primaryURL,
			Comments:        StripMarkup(cs.Draft.Content),
			BrandName:       cs.Draft.BrandName,
			Status:          status,
			PostType:        postType,
			PlatformData:    platformData,
		},
	}
	if status == models.PostStatusScheduled {
		req.Post.ScheduledAt = cs.Draft.ScheduledAt.Format(time.RFC3339)
	}
	return req
}

// submit performs the single network step. Scheduled posts are handed to the
// scheduler instead of holding the request until the scheduled time.
func (s *publishService) submit(ctx context.Context, sess *models.Session, cs *ComposerSession, status string, req *transfer.CreatePostRequest) (*transfer.CreatePostResponse, error) {
	if status == models.PostStatusScheduled && s.scheduler != nil {
		cs.mu.Lock()
		delay := time.Until(cs.Draft.ScheduledAt)
		cs.mu.Unlock()
		if delay < 0 {
			delay = 0
		}

		if err := s.scheduler.Schedule(ctx, sess.Token, req, delay); err != nil {
			slog.Error(err.Error())
			return nil, err
		}

		resp := &transfer.CreatePostResponse{Status: models.ResultStatusSuccess}
		for _, id := range req.SocialPageIDs {
			resp.Posts = append(resp.Posts, transfer.CreatedPost{
				SocialPageID: id,
				Status:       models.PostStatusScheduled,
			})
		}
		return resp, nil
	}

	return s.client.CreatePost(ctx, sess, req)
}

func (s *publishService) report(cs *ComposerSession, resp *transfer.CreatePostResponse) *models.PublishResult {
	result := &models.PublishResult{
		Status:    resp.Status,
		CreatedAt: time.Now(),
	}
	if result.Status == "" {
		result.Status = models.ResultStatusSuccess
	}

	for _, p := range resp.Posts {
		result.Accounts = append(result.Accounts, models.AccountResult{
			AccountID:   p.SocialPageID,
			Platform:    p.Platform,
			Success:     true,
			PostStatus:  p.Status,
			PublishedAt: p.PublishedAt,
		})
	}
	for _, e := range resp.Errors {
		msg := e.Message()
		if msg == "" {
			msg = GenericErrorMessage
		}
		result.Accounts = append(result.Accounts, models.AccountResult{
			AccountID: e.SocialPageID,
			Success:   false,
			Error:     msg,
		})
	}
	return result
}

// startProgress emits human-readable labels on a fixed timer until the
// returned channel is closed.
func (s *publishService) startProgress(sessionID string) chan struct{} {
	stop := make(chan struct{})
	if s.progress == nil {
		return stop
	}

	go func() {
		i := 0
		s.progress(sessionID, progressLabels[i])
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if i < len(progressLabels)-1 {
					i++
				}
				s.progress(sessionID, progressLabels[i])
			}
		}
	}()
	return stop
}
