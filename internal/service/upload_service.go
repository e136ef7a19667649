package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/composeflow/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaUploader stores one media file and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, sess *models.Session, filename, mimeType string, data []byte) (string, error)
}

// remoteUploader pushes files through the content API's upload endpoint.
type remoteUploader struct {
	client *ContentClient
	path   string
}

func NewRemoteUploader(client *ContentClient, path string) MediaUploader {
	return &remoteUploader{client: client, path: path}
}

func (u *remoteUploader) Upload(ctx context.Context, sess *models.Session, filename, mimeType string, data []byte) (string, error) {
	return u.client.Upload(ctx, sess, u.path, filename, data)
}

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {}, "webp": {},
}

// MediaQueue is the per-session list of uploading/uploaded media. Each
// enqueued file uploads on its own goroutine; completion order is not the
// enqueue order, so items are always addressed by id. The first item whose
// upload COMPLETES becomes primary unless one was already chosen.
type MediaQueue struct {
	mu       sync.Mutex
	items    []*models.MediaItem
	files    map[string][]byte
	primary  string
	uploader MediaUploader
	wg       sync.WaitGroup
}

func NewMediaQueue(uploader MediaUploader) *MediaQueue {
	return &MediaQueue{
		uploader: uploader,
		files:    make(map[string][]byte),
	}
}

// Enqueue validates the file and starts its upload. Uploads outlive the
// request that submitted them, so the goroutine runs on a background context
// rather than the caller's request-scoped one.
func (q *MediaQueue) Enqueue(sess *models.Session, filename string, data []byte) (*models.MediaItem, error) {
	if len(data) == 0 {
		err := errors.New("empty file")
		slog.Info(err.Error())
		return nil, err
	}

	fileType, err := filetype.Match(data)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	kind := models.MediaKindImage
	if strings.HasPrefix(fileType.MIME.Value, "video/") {
		kind = models.MediaKindVideo
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	item := &models.MediaItem{
		ID:        id,
		FileName:  filename,
		Kind:      kind,
		MimeType:  fileType.MIME.Value,
		State:     models.MediaStateUploading,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.files[id] = data
	q.mu.Unlock()

	q.wg.Add(1)
	go q.upload(context.Background(), sess, item)

	return q.snapshot(item), nil
}

func (q *MediaQueue) upload(ctx context.Context, sess *models.Session, item *models.MediaItem) {
	defer q.wg.Done()

	q.mu.Lock()
	data := q.files[item.ID]
	q.mu.Unlock()

	url, err := q.uploader.Upload(ctx, sess, item.FileName, item.MimeType, data)

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.contains(item.ID) {
		// removed while uploading; nothing to record
		return
	}
	delete(q.files, item.ID)

	if err != nil {
		slog.Info(err.Error())
		item.State = models.MediaStateFailed
		item.Error = err.Error()
		return
	}

	item.RemoteURL = url
	item.State = models.MediaStateReady
	if q.primary == "" {
		q.primary = item.ID
	}
}

func (q *MediaQueue) contains(id string) bool {
	for _, it := range q.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (q *MediaQueue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, it := range q.items {
		if it.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			delete(q.files, id)
			break
		}
	}

	if q.primary != id {
		return
	}
	q.primary = ""
	for _, it := range q.items {
		if it.State == models.MediaStateReady {
			q.primary = it.ID
			return
		}
	}
}

func (q *MediaQueue) SelectPrimary(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.ID == id {
			if it.State != models.MediaStateReady {
				return errors.New("media item is not ready")
			}
			q.primary = id
			return nil
		}
	}
	return errors.New("media item not found")
}

// MarkEdited swaps in the URL of a client-rendered re-encode after an image
// transform.
func (q *MediaQueue) MarkEdited(id, remoteURL string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.ID == id {
			if it.State != models.MediaStateReady {
				return errors.New("media item is not ready")
			}
			it.RemoteURL = remoteURL
			it.Edited = true
			return nil
		}
	}
	return errors.New("media item not found")
}

func (q *MediaQueue) Primary() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.primary
}

func (q *MediaQueue) Items() []models.MediaItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]models.MediaItem, 0, len(q.items))
	for _, it := range q.items {
		items = append(items, *it)
	}
	return items
}

// Ready returns the uploaded items in enqueue order, plus the primary URL.
func (q *MediaQueue) Ready() ([]models.MediaItem, string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []models.MediaItem
	var primaryURL string
	for _, it := range q.items {
		if it.State != models.MediaStateReady {
			continue
		}
		ready = append(ready, *it)
		if it.ID == q.primary {
			primaryURL = it.RemoteURL
		}
	}
	if primaryURL == "" && len(ready) > 0 {
		primaryURL = ready[0].RemoteURL
	}
	return ready, primaryURL
}

func (q *MediaQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.primary = ""
	q.files = make(map[string][]byte)
}

// Wait blocks until every in-flight upload has finished.
func (q *MediaQueue) Wait() {
	q.wg.Wait()
}

func (q *MediaQueue) snapshot(item *models.MediaItem) *models.MediaItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	copied := *item
	return &copied
}
