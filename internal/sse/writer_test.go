package sse

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nonFlusher struct {
	http.ResponseWriter
}

func TestWriterRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.SendComment("ping"))
	require.NoError(t, w.SendData(frame{Type: "text-delta", Text: "hi"}))
	require.NoError(t, w.SendData(frame{Type: "finish"}))
	require.NoError(t, w.SendDone())

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, ": ping\n\n"+
		"data: {\"type\":\"text-delta\",\"text\":\"hi\"}\n\n"+
		"data: {\"type\":\"finish\"}\n\n"+
		"data: [DONE]\n\n", rec.Body.String())

	dec := NewDecoder[frame](io.NopCloser(rec.Body))
	assert.Equal(t, []frame{{Type: "text-delta", Text: "hi"}, {Type: "finish"}}, collect(t, dec))
}

func TestWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(nonFlusher{httptest.NewRecorder()})
	assert.Error(t, err)
}
