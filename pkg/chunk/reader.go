package chunk

import (
	"context"
	"io"
	"iter"
	"worker-analysis/entities"
)

type reader struct {
	ctx   context.Context
	next  func() (Chunk, bool)
	stop  func()
	buf   []byte
	read  int64
	total int64
	err   error
}

// NewReader exposes the chunk sequence of asset as a stream. Chunks are
// pulled one at a time as the consumer reads. If the sequence ends before
// the whole asset was produced the reader fails with the context error, so
// a cancelled upload never looks complete. Close must be called to release
// the underlying iterator.
func NewReader(ctx context.Context, asset entities.VideoAsset, chunkSize int) io.ReadCloser {
	next, stop := iter.Pull(Chunks(ctx, asset, chunkSize))
	return &reader{
		ctx:   ctx,
		next:  next,
		stop:  stop,
		total: int64(len(asset.Data)),
	}
}

func (r *reader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		c, ok := r.next()
		if !ok {
			r.stop()
			r.err = io.EOF
			if r.read < r.total {
				r.err = r.ctx.Err()
				if r.err == nil {
					r.err = io.ErrUnexpectedEOF
				}
			}
			return 0, r.err
		}
		r.buf = c.Payload
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	r.read += int64(n)
	return n, nil
}

func (r *reader) Close() error {
	r.stop()
	return nil
}
