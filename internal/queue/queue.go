package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/composeflow/internal/transfer"
	"github.com/maheshrc27/composeflow/pkg/utils"
)

// Scheduler implements service.PostScheduler on top of asynq.
type Scheduler struct {
	client    *asynq.Client
	secretKey string
}

func NewScheduler(client *asynq.Client, secretKey string) *Scheduler {
	return &Scheduler{client: client, secretKey: secretKey}
}

func (s *Scheduler) Schedule(ctx context.Context, token string, req *transfer.CreatePostRequest, delay time.Duration) error {
	sealed, err := utils.Encrypt([]byte(token), []byte(s.secretKey))
	if err != nil {
		return err
	}

	taskPayload, err := json.Marshal(PublishPostPayload{Token: sealed, Request: *req})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = s.client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Post scheduled for %d accounts in %s", len(req.SocialPageIDs), delay)
	return nil
}
