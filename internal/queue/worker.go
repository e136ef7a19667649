package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/pkg/utils"
)

func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	token, err := utils.Decrypt(payload.Token, []byte(j.secretKey))
	if err != nil {
		return err
	}

	j.PublishPost(&models.Session{Token: token}, &payload)
	return nil
}

// PublishPost submits the deferred create-post request. The call is a single
// atomic request, same as an immediate publish; outcomes are logged, not
// retried.
func (j *Queue) PublishPost(sess *models.Session, payload *PublishPostPayload) {
	ctx := context.Background()

	req := payload.Request
	req.Post.Status = models.PostStatusPublish
	req.Post.ScheduledAt = ""

	resp, err := j.cc.CreatePost(ctx, sess, &req)
	if err != nil {
		log.Printf("Error publishing scheduled post: %v", err)
		return
	}

	for _, e := range resp.Errors {
		log.Printf("Error publishing scheduled post to account %d: %s", e.SocialPageID, e.Message())
	}
	log.Printf("Scheduled post published: status=%s accounts=%d", resp.Status, len(resp.Posts))
}
