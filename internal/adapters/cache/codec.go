package cache

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// codec compresses values at rest. EncodeAll and DecodeAll are safe for
// concurrent use, so one codec serves a whole store. close waits for
// in-flight calls; later calls fail with ErrClosed.
type codec struct {
	mu     sync.RWMutex
	closed bool
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd encoder: %w", ErrCodec, err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("%w: zstd decoder: %w", ErrCodec, err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) encode(value []byte, compress bool) ([]byte, error) {
	if !compress {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.enc.EncodeAll(value, make([]byte, 0, len(value)/2)), nil
}

func (c *codec) decode(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCodec, err)
	}
	return out, nil
}

func (c *codec) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.enc.Close()
	c.dec.Close()
}
