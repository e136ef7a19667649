package queue

import (
	"github.com/maheshrc27/composeflow/internal/service"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

type Queue struct {
	cc        *service.ContentClient
	secretKey string
}

func NewQueue(cc *service.ContentClient, secretKey string) *Queue {
	return &Queue{cc: cc, secretKey: secretKey}
}

const TaskTypePublishPost = "publish:post"

// PublishPostPayload carries everything the worker needs at the scheduled
// time: the fully assembled request and the sealed bearer token. The
// composer session may be long gone by then.
type PublishPostPayload struct {
	Token   string                     `json:"token"` // AES-GCM sealed
	Request transfer.CreatePostRequest `json:"request"`
}
