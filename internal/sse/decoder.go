package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"

	stlerr "github.com/kkkunny/stl/error"

	"github.com/kkkunny/PDFTutor/internal/config"
)

const (
	DoneSentinel = "[DONE]"

	defaultChunkSize = 4 * 1024
	maxLineSize      = 1024 * 1024
)

var ErrLineTooLong = errors.New("sse: line too long")

// Decoder 把SSE字节流切分为帧并逐帧解析为T
// 非并发安全，同一时刻只有一次读
type Decoder[T any] struct {
	body   io.ReadCloser
	buf    []byte
	chunk  []byte
	eof    bool
	closed bool
	err    error // 上游错误，之后的Next都返回它
}

func NewDecoder[T any](body io.ReadCloser) *Decoder[T] {
	return &Decoder[T]{
		body:  body,
		chunk: make([]byte, defaultChunkSize),
	}
}

// Next 取下一帧，流结束或遇到[DONE]时返回io.EOF
func (d *Decoder[T]) Next() (*T, error) {
	for {
		if d.err != nil {
			return nil, d.err
		} else if d.closed {
			return nil, io.EOF
		}

		line, ok := d.nextLine()
		if !ok {
			if d.eof {
				_ = d.Close()
				return nil, io.EOF
			}
			if err := d.fill(); err != nil {
				return nil, err
			}
			continue
		}

		payload, ok := dataPayload(line)
		if !ok || len(payload) == 0 {
			continue
		}
		if string(payload) == DoneSentinel {
			_ = d.Close()
			return nil, io.EOF
		}

		if !utf8.Valid(payload) {
			_ = config.Logger.Warnf("skip sse frame with invalid utf-8: %q", payload)
			continue
		}
		var v T
		if err := stlerr.ErrorWrap(json.Unmarshal(payload, &v)); err != nil {
			_ = config.Logger.Warnf("skip malformed sse frame `%s`: %s", payload, err)
			continue
		}
		return &v, nil
	}
}

// Close 释放上游，可重复调用
func (d *Decoder[T]) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.buf = nil
	return stlerr.ErrorWrap(d.body.Close())
}

func (d *Decoder[T]) fill() error {
	n, err := d.body.Read(d.chunk)
	d.buf = append(d.buf, d.chunk[:n]...)
	if err != nil && errors.Is(err, io.EOF) {
		d.eof = true
		return nil
	} else if err != nil {
		return d.fail(err)
	}
	if len(d.buf) > maxLineSize && bytes.IndexByte(d.buf, '\n') < 0 {
		return d.fail(ErrLineTooLong)
	}
	return nil
}

func (d *Decoder[T]) fail(err error) error {
	_ = d.Close()
	d.err = stlerr.ErrorWrap(err)
	return d.err
}

// nextLine 取出一个完整行；上游已结束时剩余内容作为最后一行
func (d *Decoder[T]) nextLine() ([]byte, bool) {
	idx := bytes.IndexByte(d.buf, '\n')
	if idx < 0 {
		if !d.eof || len(d.buf) == 0 {
			return nil, false
		}
		idx = len(d.buf)
	}

	line := d.buf[:idx]
	if idx < len(d.buf) {
		d.buf = d.buf[idx+1:]
	} else {
		d.buf = d.buf[:0]
	}
	return bytes.TrimSuffix(line, []byte{'\r'}), true
}

// dataPayload 解析`data:`行，其余字段与空行不携带负载
func dataPayload(line []byte) ([]byte, bool) {
	const field = "data:"
	if !bytes.HasPrefix(line, []byte(field)) {
		return nil, false
	}
	payload := bytes.TrimPrefix(line[len(field):], []byte{' '})
	return bytes.TrimSpace(payload), true
}
