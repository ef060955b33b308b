package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

var sessionCookie = &http.Cookie{Name: "sb-session", Value: "token"}

func TestChatStream(t *testing.T) {
	t.Run("returns the unread body", func(t *testing.T) {
		var got dto.ChatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
			cookie, err := r.Cookie("sb-session")
			if assert.NoError(t, err) {
				assert.Equal(t, "token", cookie.Value)
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: {\"type\":\"finish\"}\n\ndata: [DONE]\n\n")
		}))
		defer srv.Close()

		body, err := ChatStream(context.Background(), srv.URL+"/api/chat", []*http.Cookie{sessionCookie}, &dto.ChatRequest{
			Messages:    []*dto.UIMessage{dto.NewTextUIMessage("u1", dto.RoleUser, "What is on page 2?")},
			PDFContent:  []*dto.PageContent{{PageNumber: 2, Text: "Area of a circle"}},
			CurrentPage: 1,
			FileID:      "file-1",
		})
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "data: {\"type\":\"finish\"}\n\ndata: [DONE]\n\n", string(data))

		require.Len(t, got.Messages, 1)
		assert.Equal(t, "What is on page 2?", got.Messages[0].Text())
		assert.Equal(t, 1, got.CurrentPage)
		assert.Equal(t, "file-1", got.FileID)
		require.Len(t, got.PDFContent, 1)
		assert.Equal(t, 2, got.PDFContent[0].PageNumber)
	})

	t.Run("non-OK status is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := ChatStream(context.Background(), srv.URL, nil, &dto.ChatRequest{})
		require.Error(t, err)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	})

	t.Run("unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := ChatStream(context.Background(), srv.URL, nil, &dto.ChatRequest{})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestFileEndpoints(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files/abc.pdf/signed-url", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"url":"https://storage.example/pdfs/u1/abc.pdf?token=x"}`)
	})
	mux.HandleFunc("/api/files/missing/signed-url", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		var req createUploadURLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "notes.pdf", req.Name)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"url":"`+"http://"+r.Host+`/storage/upload","token":"t1","path":"u1/notes.pdf"}`)
	})
	mux.HandleFunc("/storage/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		uploaded, _ = io.ReadAll(r.Body)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()

	url, err := FileSignedURL(ctx, srv.URL, []*http.Cookie{sessionCookie}, "abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example/pdfs/u1/abc.pdf?token=x", url)

	_, err = FileSignedURL(ctx, srv.URL, nil, "missing")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = FileSignedURL(ctx, srv.URL, nil, "")
	assert.Error(t, err)

	target, err := CreateUploadURL(ctx, srv.URL, []*http.Cookie{sessionCookie}, "notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, "u1/notes.pdf", target.Path)

	require.NoError(t, UploadPDF(ctx, target, []byte("%PDF-1.7")))
	assert.Equal(t, "%PDF-1.7", string(uploaded))
}
