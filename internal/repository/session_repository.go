package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/pkg/utils"
	"github.com/redis/go-redis/v9"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.Session, bool, error)
	Set(ctx context.Context, sess *models.Session) error
	Clear(ctx context.Context, id string) error
}

type storedSession struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type sessionRepository struct {
	rdb       *redis.Client
	secretKey string
	ttl       time.Duration
}

func NewSessionRepository(rdb *redis.Client, secretKey string, ttl time.Duration) SessionRepository {
	return &sessionRepository{rdb: rdb, secretKey: secretKey, ttl: ttl}
}

func sessionKey(id string) string {
	return "composer:session:" + id
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	value, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		slog.Info(err.Error())
		return nil, false, err
	}

	token, err := utils.Decrypt(stored.Token, []byte(r.secretKey))
	if err != nil {
		return nil, false, err
	}

	return &models.Session{ID: id, Token: token, Role: stored.Role}, true, nil
}

func (r *sessionRepository) Set(ctx context.Context, sess *models.Session) error {
	encryptedToken, err := utils.Encrypt([]byte(sess.Token), []byte(r.secretKey))
	if err != nil {
		return err
	}

	value, err := json.Marshal(storedSession{Token: encryptedToken, Role: sess.Role})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := r.rdb.Set(ctx, sessionKey(sess.ID), value, r.ttl).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// memorySessionRepository backs tests and single-process deployments that
// run without redis.
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]models.Session)}
}

func (r *memorySessionRepository) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return &sess, true, nil
}

func (r *memorySessionRepository) Set(ctx context.Context, sess *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = *sess
	return nil
}

func (r *memorySessionRepository) Clear(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
