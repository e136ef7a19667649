package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

// contentAPIStub fakes the remote content API's create-post endpoint.
type contentAPIStub struct {
	mu       sync.Mutex
	calls    int32
	lastBody transfer.CreatePostRequest
	status   int
	response string
	delay    time.Duration
}

func (s *contentAPIStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&s.calls, 1)
		s.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&s.lastBody)
		status, response, delay := s.status, s.response, s.delay
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	})
}

func (s *contentAPIStub) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func (s *contentAPIStub) body() transfer.CreatePostRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

func newPipeline(t *testing.T, stub *contentAPIStub) (PublishService, *ComposerSession, func()) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})

	cs := &ComposerSession{
		ID:        "test-session",
		Media:     NewMediaQueue(instantUploader{}),
		ActiveTab: models.PlatformInstagram,
	}
	cs.Draft.Subtype = models.SubtypePost

	return NewPublishService(client, nil, nil), cs, srv.Close
}

func addReadyMedia(t *testing.T, cs *ComposerSession, filename string) {
	t.Helper()
	if _, err := cs.Media.Enqueue(nil, filename, pngBytes); err != nil {
		t.Fatalf("enqueue media: %v", err)
	}
	cs.Media.Wait()
}

func instagramAccount(id int64) models.TargetAccount {
	return models.TargetAccount{ID: id, Name: "insta", Platform: models.PlatformInstagram}
}

func linkedinAccount(id int64) models.TargetAccount {
	return models.TargetAccount{ID: id, Name: "li", Platform: models.PlatformLinkedin}
}

func TestEmptyCaptionRejectedBeforeNetwork(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.AddAccount(instagramAccount(1))
	addReadyMedia(t, cs, "a.png")

	for _, status := range []string{models.PostStatusPublish, models.PostStatusDraft, models.PostStatusScheduled} {
		_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, status)
		if !errors.Is(err, ErrEmptyCaption) {
			t.Errorf("status %s: err = %v, want ErrEmptyCaption", status, err)
		}
	}
	if stub.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", stub.callCount())
	}
	if cs.State() != PipelineIdle {
		t.Errorf("state = %s, want idle", cs.State())
	}
}

func TestNoTargetsRejectedBeforeNetwork(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "hello"
	addReadyMedia(t, cs, "a.png")

	_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
	if !errors.Is(err, ErrNoTargetAccounts) {
		t.Errorf("err = %v, want ErrNoTargetAccounts", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", stub.callCount())
	}
}

func TestMediaRequirementByPlatform(t *testing.T) {
	t.Run("linkedin only accepts text", func(t *testing.T) {
		stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
		pipeline, cs, done := newPipeline(t, stub)
		defer done()

		cs.Draft.Content = "text only"
		cs.Draft.AddAccount(linkedinAccount(7))

		if _, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish); err != nil {
			t.Fatalf("text-only linkedin publish failed: %v", err)
		}
		if stub.callCount() != 1 {
			t.Errorf("network calls = %d, want 1", stub.callCount())
		}
	})

	t.Run("instagram requires media regardless of caption", func(t *testing.T) {
		stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
		pipeline, cs, done := newPipeline(t, stub)
		defer done()

		cs.Draft.Content = "a fine caption"
		cs.Draft.AddAccount(linkedinAccount(7))
		cs.Draft.AddAccount(instagramAccount(8))

		_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
		if !errors.Is(err, ErrMediaRequired) {
			t.Errorf("err = %v, want ErrMediaRequired", err)
		}
		if stub.callCount() != 0 {
			t.Errorf("network calls = %d, want 0", stub.callCount())
		}
	})
}

func TestSingleFlightPublish(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`, delay: 150 * time.Millisecond}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "hello"
	cs.Draft.AddAccount(instagramAccount(1))
	addReadyMedia(t, cs, "a.png")

	var wg sync.WaitGroup
	var inFlight int32
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
			if errors.Is(err, ErrPublishInFlight) {
				atomic.AddInt32(&inFlight, 1)
			}
		}()
	}
	wg.Wait()

	if stub.callCount() != 1 {
		t.Errorf("network calls = %d, want exactly 1", stub.callCount())
	}
	if inFlight != 1 {
		t.Errorf("in-flight rejections = %d, want 1", inFlight)
	}
}

func TestDraftPreservedOnFailure(t *testing.T) {
	stub := &contentAPIStub{status: 422, response: `{"errors":[{"error_message":"Instagram token expired"}]}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "keep me"
	cs.Draft.BrandName = "acme"
	cs.Draft.AddAccount(instagramAccount(1))
	addReadyMedia(t, cs, "a.png")

	_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
	if err == nil {
		t.Fatal("expected failure")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err type = %T", err)
	}
	if apiErr.Message != "Instagram token expired" {
		t.Errorf("message = %q, want first structured error", apiErr.Message)
	}

	draft := cs.SnapshotDraft()
	if draft.Content != "keep me" || draft.BrandName != "acme" || len(draft.TargetAccounts) != 1 {
		t.Errorf("draft mutated after failure: %+v", draft)
	}
	if len(cs.Media.Items()) != 1 {
		t.Errorf("media queue mutated after failure")
	}
	if cs.State() != PipelineIdle {
		t.Errorf("state = %s, want idle", cs.State())
	}
}

func TestResetOnSuccess(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success","posts":[{"social_page_id":1,"platform":"instagram","status":"published"}]}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "bye"
	cs.Draft.AddAccount(instagramAccount(1))
	addReadyMedia(t, cs, "a.png")

	result, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if result.Status != models.ResultStatusSuccess {
		t.Errorf("result status = %s", result.Status)
	}

	draft := cs.SnapshotDraft()
	if draft.Content != "" || len(draft.TargetAccounts) != 0 {
		t.Errorf("draft not reset: %+v", draft)
	}
	if len(cs.Media.Items()) != 0 {
		t.Errorf("media queue not reset")
	}
	if got := cs.TakeResult(); got == nil {
		t.Error("result not stored on session")
	} else if cs.TakeResult() != nil {
		t.Error("result readable twice")
	}
}

func TestPartialSuccessBreakdown(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{
		"status":"partial_success",
		"posts":[{"social_page_id":1,"platform":"instagram","status":"published"}],
		"errors":[{"social_page_id":2,"error_message":"page unavailable"}]
	}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "mixed"
	cs.Draft.AddAccount(instagramAccount(1))
	cs.Draft.AddAccount(models.TargetAccount{ID: 2, Name: "fb", Platform: models.PlatformFacebook})
	addReadyMedia(t, cs, "a.png")

	result, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if result.Status != models.ResultStatusPartialSuccess {
		t.Errorf("status = %s, want partial_success", result.Status)
	}
	if len(result.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(result.Accounts))
	}

	var ok, failed int
	for _, a := range result.Accounts {
		if a.Success {
			ok++
		} else {
			failed++
			if a.Error != "page unavailable" {
				t.Errorf("failure message = %q", a.Error)
			}
		}
	}
	if ok != 1 || failed != 1 {
		t.Errorf("breakdown ok=%d failed=%d, want 1/1", ok, failed)
	}
}

func TestPublishPayloadShape(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "Hello world"
	cs.Draft.Subtype = models.SubtypePost
	cs.Draft.AddAccount(instagramAccount(42))
	addReadyMedia(t, cs, "img.png")

	if _, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusPublish); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if stub.callCount() != 1 {
		t.Fatalf("network calls = %d, want 1", stub.callCount())
	}

	body := stub.body()
	if len(body.SocialPageIDs) != 1 || body.SocialPageIDs[0] != 42 {
		t.Errorf("social_page_ids = %v", body.SocialPageIDs)
	}
	if body.Post.Comments != "Hello world" {
		t.Errorf("comments = %q", body.Post.Comments)
	}
	if len(body.Post.MediaURLs) != 1 || body.Post.MediaURLs[0] != "https://cdn.example/img.png" {
		t.Errorf("media_urls = %v", body.Post.MediaURLs)
	}
	if body.Post.PrimaryMediaURL != "https://cdn.example/img.png" {
		t.Errorf("primary_media_url = %q", body.Post.PrimaryMediaURL)
	}
	if body.Post.PostType != "post" {
		t.Errorf("post_type = %q", body.Post.PostType)
	}
	if body.Post.PlatformData["instagram_type"] != "post" {
		t.Errorf("platform_data = %v", body.Post.PlatformData)
	}
	if body.Post.Status != models.PostStatusPublish {
		t.Errorf("status = %q", body.Post.Status)
	}
}

func TestSaveDraftEmptyLinkedinRejected(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.AddAccount(linkedinAccount(7))

	_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusDraft)
	if !IsValidationError(err) {
		t.Errorf("err = %v, want validation error", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", stub.callCount())
	}
}

func TestScheduleRequiresTime(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	pipeline, cs, done := newPipeline(t, stub)
	defer done()

	cs.Draft.Content = "later"
	cs.Draft.AddAccount(linkedinAccount(7))

	_, err := pipeline.Run(context.Background(), &models.Session{Token: "tok"}, cs, models.PostStatusScheduled)
	if !errors.Is(err, ErrMissingSchedule) {
		t.Errorf("err = %v, want ErrMissingSchedule", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", stub.callCount())
	}
}

// recordingScheduler captures what would be handed to asynq.
type recordingScheduler struct {
	token string
	req   *transfer.CreatePostRequest
	delay time.Duration
}

func (s *recordingScheduler) Schedule(ctx context.Context, token string, req *transfer.CreatePostRequest, delay time.Duration) error {
	s.token = token
	s.req = req
	s.delay = delay
	return nil
}

func TestScheduleDefersThroughScheduler(t *testing.T) {
	stub := &contentAPIStub{status: 200, response: `{"status":"success"}`}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})
	sched := &recordingScheduler{}
	pipeline := NewPublishService(client, sched, nil)

	cs := &ComposerSession{ID: "s", Media: NewMediaQueue(instantUploader{})}
	cs.Draft.Content = "later"
	cs.Draft.AddAccount(linkedinAccount(7))
	cs.SetSchedule(time.Now().Add(1 * time.Hour))

	result, err := pipeline.Run(context.Background(), &models.Session{Token: "bearer-x"}, cs, models.PostStatusScheduled)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if stub.callCount() != 0 {
		t.Errorf("immediate network calls = %d, want 0 for scheduled posts", stub.callCount())
	}
	if sched.req == nil {
		t.Fatal("scheduler not invoked")
	}
	if sched.token != "bearer-x" {
		t.Errorf("scheduler token = %q", sched.token)
	}
	if sched.delay <= 0 || sched.delay > time.Hour {
		t.Errorf("delay = %s", sched.delay)
	}
	if sched.req.Post.Status != models.PostStatusScheduled {
		t.Errorf("payload status = %q", sched.req.Post.Status)
	}
	if result.Status != models.ResultStatusSuccess {
		t.Errorf("result status = %s", result.Status)
	}

	// draft cleared after a successful terminal action
	if draft := cs.SnapshotDraft(); draft.Content != "" {
		t.Errorf("draft not reset after schedule: %+v", draft)
	}
}
