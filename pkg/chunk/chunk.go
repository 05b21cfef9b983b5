package chunk

import (
	"context"
	"github.com/rs/zerolog"
	"iter"
	"worker-analysis/entities"
)

const DefaultChunkSize = 10 * 1024 * 1024

type Chunk struct {
	Index   int
	Payload []byte
}

// Chunks lazily splits asset into contiguous chunks of at most chunkSize
// bytes. Every call starts again at offset zero. The context is checked
// once per chunk boundary and a cancelled context simply ends the sequence.
func Chunks(ctx context.Context, asset entities.VideoAsset, chunkSize int) iter.Seq[Chunk] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	data := asset.Data
	return func(yield func(Chunk) bool) {
		index := 0
		for offset := 0; offset < len(data); offset += chunkSize {
			if ctx.Err() != nil {
				zerolog.Ctx(ctx).Debug().Int("chunk_index", index).Msg("chunk generation aborted")
				return
			}

			end := min(offset+chunkSize, len(data))
			if !yield(Chunk{Index: index, Payload: data[offset:end]}) {
				return
			}
			index++
		}
	}
}

// Count returns how many chunks Chunks yields for size bytes.
func Count(size int64, chunkSize int) int {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if size <= 0 {
		return 0
	}
	c := int64(chunkSize)
	return int((size + c - 1) / c)
}
