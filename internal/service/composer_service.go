package service

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

// ComposerSession holds one draft post, its media queue and the pipeline
// state for a single composition session. Drafts live only in memory; the
// content API is the system of record for everything published.
type ComposerSession struct {
	ID        string
	Draft     models.DraftPost
	Media     *MediaQueue
	ActiveTab string
	Cursor    int

	mu         sync.Mutex
	state      int32
	lastResult *models.PublishResult
	lastActive int64 // unix nanos, updated on every user event
}

func (cs *ComposerSession) touch() {
	atomic.StoreInt64(&cs.lastActive, time.Now().UnixNano())
}

// transition moves the pipeline state machine from exactly `from` to `to`.
// It is the only way the state changes, so impossible flag combinations
// cannot occur.
func (cs *ComposerSession) transition(from, to PipelineState) bool {
	return atomic.CompareAndSwapInt32(&cs.state, int32(from), int32(to))
}

func (cs *ComposerSession) setState(s PipelineState) {
	atomic.StoreInt32(&cs.state, int32(s))
}

func (cs *ComposerSession) State() PipelineState {
	return PipelineState(atomic.LoadInt32(&cs.state))
}

// SnapshotDraft copies the draft for readers outside the service layer.
func (cs *ComposerSession) SnapshotDraft() models.DraftPost {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	d := cs.Draft
	d.TargetAccounts = append([]models.TargetAccount(nil), cs.Draft.TargetAccounts...)
	return d
}

func (cs *ComposerSession) Tab() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.ActiveTab
}

// SetSchedule records the requested publish time on the draft.
func (cs *ComposerSession) SetSchedule(t time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.Draft.ScheduledAt = t
	cs.touch()
}

// TakeResult hands the last publishing result to the caller exactly once.
func (cs *ComposerSession) TakeResult() *models.PublishResult {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	r := cs.lastResult
	cs.lastResult = nil
	return r
}

func (cs *ComposerSession) setResult(r *models.PublishResult) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastResult = r
}

type ComposerService interface {
	Open(sessionID string) *ComposerSession
	Get(sessionID string) (*ComposerSession, bool)
	UpdateDraft(cs *ComposerSession, update *transfer.DraftUpdate)
	ToggleAccount(cs *ComposerSession, toggle *transfer.AccountToggle)
	EnqueueMedia(sess *models.Session, cs *ComposerSession, filename string, data []byte) (*models.MediaItem, error)
	Suggestions(cs *ComposerSession) []string
	ApplyMention(cs *ComposerSession, mention string)
	Discard(sessionID string)
	Sweep(maxIdle time.Duration) int
}

type composerService struct {
	mu       sync.Mutex
	sessions map[string]*ComposerSession
	uploader MediaUploader
}

func NewComposerService(uploader MediaUploader) ComposerService {
	return &composerService{
		sessions: make(map[string]*ComposerSession),
		uploader: uploader,
	}
}

// Open returns the session's composer, creating a fresh one on first use.
func (s *composerService) Open(sessionID string) *ComposerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs, ok := s.sessions[sessionID]; ok {
		cs.touch()
		return cs
	}

	cs := &ComposerSession{
		ID:        sessionID,
		Media:     NewMediaQueue(s.uploader),
		ActiveTab: models.PlatformInstagram,
	}
	cs.Draft.Subtype = models.SubtypePost
	cs.touch()
	s.sessions[sessionID] = cs
	return cs
}

func (s *composerService) Get(sessionID string) (*ComposerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[sessionID]
	if ok {
		cs.touch()
	}
	return cs, ok
}

func (s *composerService) UpdateDraft(cs *ComposerSession, update *transfer.DraftUpdate) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if update.Content != nil {
		cs.Draft.Content = *update.Content
	}
	if update.BrandName != nil {
		cs.Draft.BrandName = *update.BrandName
	}
	if update.Subtype != nil {
		switch *update.Subtype {
		case models.SubtypePost, models.SubtypeReel, models.SubtypeStory:
			cs.Draft.Subtype = *update.Subtype
		}
	}
	if update.Cursor != nil {
		cs.Cursor = *update.Cursor
	}
	cs.touch()
}

// ToggleAccount keeps targetAccounts unique by id in selection order and
// switches the preview tab to the platform of the account just touched.
func (s *composerService) ToggleAccount(cs *ComposerSession, toggle *transfer.AccountToggle) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if toggle.Selected {
		cs.Draft.AddAccount(toggle.Account)
	} else {
		cs.Draft.RemoveAccount(toggle.Account.ID)
	}
	if toggle.Account.Platform != "" {
		cs.ActiveTab = toggle.Account.Platform
	}
	cs.touch()
}

func (s *composerService) EnqueueMedia(sess *models.Session, cs *ComposerSession, filename string, data []byte) (*models.MediaItem, error) {
	cs.touch()
	return cs.Media.Enqueue(sess, filename, data)
}

// Suggestions returns target account names matching a trailing @token at the
// tracked cursor, or nothing when no mention is being typed.
func (s *composerService) Suggestions(cs *ComposerSession) []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	token, _, ok := DetectMention(cs.Draft.Content, cs.Cursor)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(cs.Draft.TargetAccounts))
	for _, a := range cs.Draft.TargetAccounts {
		names = append(names, a.Name)
	}
	return FilterSuggestions(names, token)
}

func (s *composerService) ApplyMention(cs *ComposerSession, mention string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	_, start, ok := DetectMention(cs.Draft.Content, cs.Cursor)
	if !ok {
		return
	}
	cs.Draft.Content = SpliceMention(cs.Draft.Content, start, cs.Cursor, mention)
	cs.Cursor = start + len(mention) + 2
	cs.touch()
}

func (s *composerService) Discard(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs, ok := s.sessions[sessionID]; ok {
		cs.Media.Reset()
		delete(s.sessions, sessionID)
	}
}

// Sweep drops composer sessions idle beyond maxIdle, along with their drafts
// and media queues. A session with a publish in flight is left alone.
func (s *composerService) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle).UnixNano()
	removed := 0
	for id, cs := range s.sessions {
		if cs.State() != PipelineIdle {
			continue
		}
		if atomic.LoadInt64(&cs.lastActive) < cutoff {
			cs.Media.Reset()
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept idle composer sessions", "count", removed)
	}
	return removed
}
