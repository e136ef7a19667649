package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/maheshrc27/composeflow/configs"
	"github.com/maheshrc27/composeflow/internal/models"
)

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})

	if _, err := client.Do(context.Background(), &models.Session{Token: "tok-123"}, http.MethodGet, "/whoami", nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q", gotAuth)
	}

	if _, err := client.Do(context.Background(), nil, http.MethodGet, "/whoami", nil); err != nil {
		t.Fatalf("do without session: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("authorization without session = %q, want empty", gotAuth)
	}
}

func TestErrorBodyDecodedOnce(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"errors error_message", `{"errors":[{"error_message":"token expired"}]}`, "token expired"},
		{"errors error", `{"errors":[{"error":"bad page"}]}`, "bad page"},
		{"top-level message", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"unparseable", `<html>nope</html>`, GenericErrorMessage},
		{"empty object", `{}`, GenericErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})
			_, err := client.Do(context.Background(), nil, http.MethodPost, "/posts", map[string]string{})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err type = %T", err)
			}
			if apiErr.Kind != ErrKindAPI {
				t.Errorf("kind = %s", apiErr.Kind)
			}
			if apiErr.Message != tt.want {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestNetworkFailureIsDistinctKind(t *testing.T) {
	client := NewContentClient(config.Config{ContentAPIBaseURL: "http://127.0.0.1:1"})

	_, err := client.Do(context.Background(), nil, http.MethodGet, "/posts", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err type = %T", err)
	}
	if apiErr.Kind != ErrKindNetwork {
		t.Errorf("kind = %s, want network", apiErr.Kind)
	}
	if apiErr.Message != NetworkErrorMessage {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestConnectedPagesHandlesBothNestings(t *testing.T) {
	bodies := []string{
		`{"data":{"accounts":[{"id":1,"social_id":"x","name":"Page","page_type":"instagram","picture_url":"p"}]}}`,
		`{"accounts":[{"id":1,"social_id":"x","name":"Page","page_type":"instagram","picture_url":"p"}]}`,
	}

	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})
		accounts, err := client.ConnectedPages(context.Background(), &models.Session{Token: "t"})
		srv.Close()

		if err != nil {
			t.Fatalf("connected pages: %v", err)
		}
		if len(accounts) != 1 || accounts[0].Name != "Page" {
			t.Errorf("accounts = %+v", accounts)
		}
	}
}

func TestUploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if header.Filename != "img.png" || len(data) != len(pngBytes) {
			http.Error(w, "unexpected file", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"url":"https://x/img.png"}`))
	}))
	defer srv.Close()

	client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})

	url, err := client.Upload(context.Background(), &models.Session{Token: "t"}, "/upload", "img.png", pngBytes)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://x/img.png" {
		t.Errorf("url = %q", url)
	}
}

func TestUploadFailureSurfacesItemError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"storage full"}`))
	}))
	defer srv.Close()

	client := NewContentClient(config.Config{ContentAPIBaseURL: srv.URL})
	q := NewMediaQueue(NewRemoteUploader(client, "/upload"))

	item, err := q.Enqueue(&models.Session{Token: "t"}, "a.png", pngBytes)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	q.Wait()

	got := q.Items()[0]
	if got.ID != item.ID || got.State != models.MediaStateFailed {
		t.Errorf("item = %+v, want failed state", got)
	}
	if got.Error == "" {
		t.Error("failed item has no error message")
	}
}
