package tutor

import (
	"errors"
	"io"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/internal/sse"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

// MessageStream 解码SSE帧并折叠为消息快照序列
type MessageStream struct {
	decoder *sse.Decoder[dto.Chunk]
	reducer *Reducer
	err     error
}

func NewMessageStream(body io.ReadCloser, msg *dto.Message) *MessageStream {
	return &MessageStream{
		decoder: sse.NewDecoder[dto.Chunk](body),
		reducer: NewReducer(msg),
	}
}

// Next 返回下一个快照，正常结束时返回io.EOF
func (s *MessageStream) Next() (*dto.Message, error) {
	if s.err != nil {
		return nil, s.err
	}

	for {
		chunk, err := s.decoder.Next()
		if err != nil {
			return nil, s.fail(err)
		}

		evt, err := chunk.Event()
		if err != nil && errors.Is(err, dto.ErrUnknownChunkType) {
			_ = config.Logger.Warnf("unknown ui message chunk type `%s`", chunk.Type)
			continue
		} else if err != nil {
			_ = config.Logger.Warnf("skip ui message chunk: %s", err)
			continue
		}

		snapshot, err := s.reducer.Fold(evt)
		if err != nil {
			return nil, s.fail(err)
		}
		if s.reducer.Done() {
			_ = s.decoder.Close()
			s.err = io.EOF
		}
		return snapshot, nil
	}
}

// Last 最后一个完整快照，出错后用于展示
func (s *MessageStream) Last() *dto.Message {
	return s.reducer.Last()
}

func (s *MessageStream) Close() error {
	return s.decoder.Close()
}

func (s *MessageStream) fail(err error) error {
	_ = s.decoder.Close()
	s.err = err
	return err
}
