package service

import (
	"context"
	"errors"
	"log/slog"

	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/repository"
	"github.com/maheshrc27/composeflow/pkg/utils"
)

type SessionService interface {
	Create(ctx context.Context, token, role string) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Clear(ctx context.Context, id string) error
}

type sessionService struct {
	cfg  config.Config
	repo repository.SessionRepository
}

func NewSessionService(cfg config.Config, repo repository.SessionRepository) SessionService {
	return &sessionService{cfg: cfg, repo: repo}
}

func (s *sessionService) Create(ctx context.Context, token, role string) (*models.Session, error) {
	if token == "" {
		err := errors.New("bearer token cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}
	if role == "" {
		role = s.cfg.DefaultRole
	}

	id, err := utils.GenerateRandomKey(32)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	sess := &models.Session{ID: id, Token: token, Role: role}
	if err := s.repo.Set(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("session not found")
	}
	if sess.Role == "" {
		sess.Role = s.cfg.DefaultRole
	}
	return sess, nil
}

func (s *sessionService) Clear(ctx context.Context, id string) error {
	return s.repo.Clear(ctx, id)
}
