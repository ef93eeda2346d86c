package out

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

type Sink interface {
	Emit(ctx context.Context, typ string, v any) error
	Close() error
}

func envelope(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type: typ,
		TS:   time.Now().UnixMilli(),
		Data: data,
	})
}

// WriterSink writes one envelope per line; handy for stdout or a file.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) Emit(ctx context.Context, typ string, v any) error {
	b, err := envelope(typ, v)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(b)
	return err
}

func (s *WriterSink) Close() error { return nil }
