package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

const (
	ErrKindNetwork = "network"
	ErrKindAPI     = "api"
	ErrKindDecode  = "decode"
)

const (
	GenericErrorMessage = "Something went wrong. Please try again."
	NetworkErrorMessage = "Unable to reach the server. Please check your connection."
)

// APIError is the single error shape produced at the content API boundary.
// Response bodies are decoded here exactly once; callers branch on Kind and
// Message instead of re-inspecting raw payloads.
type APIError struct {
	Kind    string
	Status  int
	Message string
	Body    transfer.APIErrorBody
}

func (e *APIError) Error() string {
	return fmt.Sprintf("content api: %s (%s)", e.Message, e.Kind)
}

// ContentClient wraps the remote content API. One request per call, no
// retries, no timeouts beyond whatever the caller's context carries.
type ContentClient struct {
	baseURL string
	httpc   *http.Client
}

func NewContentClient(cfg config.Config) *ContentClient {
	return &ContentClient{
		baseURL: strings.TrimRight(cfg.ContentAPIBaseURL, "/"),
		httpc:   http.DefaultClient,
	}
}

func (c *ContentClient) Do(ctx context.Context, sess *models.Session, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			slog.Error(err.Error())
			return nil, &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		slog.Error(err.Error())
		return nil, &APIError{Kind: ErrKindNetwork, Message: NetworkErrorMessage}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req, sess)

	return c.send(req)
}

func (c *ContentClient) authorize(req *http.Request, sess *models.Session) {
	if sess != nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
}

func (c *ContentClient) send(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &APIError{Kind: ErrKindNetwork, Message: NetworkErrorMessage}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, &APIError{Kind: ErrKindNetwork, Message: NetworkErrorMessage}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorBody(resp.StatusCode, data)
	}

	return json.RawMessage(data), nil
}

// decodeErrorBody prefers the first structured error message in the body,
// then a top-level message, then a generic fallback.
func decodeErrorBody(status int, data []byte) *APIError {
	apiErr := &APIError{Kind: ErrKindAPI, Status: status, Message: GenericErrorMessage}

	var body transfer.APIErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	apiErr.Body = body

	for _, e := range body.Errors {
		if msg := e.Message(); msg != "" {
			apiErr.Message = msg
			return apiErr
		}
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}

func (c *ContentClient) CreatePost(ctx context.Context, sess *models.Session, req *transfer.CreatePostRequest) (*transfer.CreatePostResponse, error) {
	raw, err := c.Do(ctx, sess, http.MethodPost, "/posts", req)
	if err != nil {
		return nil, err
	}

	var resp transfer.CreatePostResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Info(err.Error())
		return nil, &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}
	return &resp, nil
}

func (c *ContentClient) ConnectedPages(ctx context.Context, sess *models.Session) ([]transfer.ConnectedAccount, error) {
	raw, err := c.Do(ctx, sess, http.MethodGet, "/social_pages/connected_pages", nil)
	if err != nil {
		return nil, err
	}

	var resp transfer.ConnectedPagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Info(err.Error())
		return nil, &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}
	return resp.All(), nil
}

// Upload posts one file as a multipart body to the upload endpoint and
// returns the public URL the backend assigned.
func (c *ContentClient) Upload(ctx context.Context, sess *models.Session, path, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		slog.Error(err.Error())
		return "", &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}
	if _, err := part.Write(data); err != nil {
		slog.Error(err.Error())
		return "", &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}
	if err := writer.Close(); err != nil {
		slog.Error(err.Error())
		return "", &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		slog.Error(err.Error())
		return "", &APIError{Kind: ErrKindNetwork, Message: NetworkErrorMessage}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req, sess)

	raw, err := c.send(req)
	if err != nil {
		return "", err
	}

	var resp transfer.UploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Info(err.Error())
		return "", &APIError{Kind: ErrKindDecode, Message: GenericErrorMessage}
	}
	if resp.URL == "" {
		return "", &APIError{Kind: ErrKindAPI, Message: GenericErrorMessage}
	}
	return resp.URL, nil
}
