package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	stlerr "github.com/kkkunny/stl/error"
)

// Writer 向客户端写出SSE帧
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, stlerr.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// SendData 写出一个JSON数据帧
func (s *Writer) SendData(v any) error {
	data, err := stlerr.ErrorWith(json.Marshal(v))
	if err != nil {
		return err
	}
	return s.write("data: " + string(data) + "\n\n")
}

// SendDone 写出结束标记
func (s *Writer) SendDone() error {
	return s.write("data: " + DoneSentinel + "\n\n")
}

func (s *Writer) SendComment(text string) error {
	return s.write(": " + text + "\n\n")
}

func (s *Writer) write(frame string) error {
	_, err := stlerr.ErrorWith(fmt.Fprint(s.w, frame))
	if err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
