package store

import (
	"encoding/hex"
	"fmt"

	snapv1 "github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/sim/encoding"
)

// ExportLoadedChunks converts loaded chunk data into snapshot chunks.
func ExportLoadedChunks(s *ChunkStore) []snapv1.ChunkV1 {
	keys := s.LoadedChunkKeys()
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		s.mu.RLock()
		ch := s.chunks[k]
		s.mu.RUnlock()
		if ch == nil {
			continue
		}
		digest := ch.Digest()

		ch.mu.RLock()
		nibbles := make([]byte, len(ch.blocks))
		for i := range nibbles {
			m := ch.meta[i/2]
			if i%2 == 0 {
				nibbles[i] = m & 0x0f
			} else {
				nibbles[i] = m >> 4
			}
		}
		c := snapv1.ChunkV1{
			Dim:    k.Dim,
			CX:     k.CX,
			CZ:     k.CZ,
			Height: ch.Height,
			Blocks: encoding.EncodeRLE(ch.blocks),
			Meta:   encoding.EncodeRLE(nibbles),
			Digest: hex.EncodeToString(digest[:]),
		}
		ch.mu.RUnlock()
		out = append(out, c)
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks.
func ImportChunks(gen WorldGen, chunks []snapv1.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(gen)
	for _, sc := range chunks {
		if sc.Height != store.Gen.Height {
			return nil, fmt.Errorf("snapshot chunk height mismatch: got %d want %d", sc.Height, store.Gen.Height)
		}
		n := ChunkSize * ChunkSize * sc.Height
		blocks, err := encoding.DecodeRLE(sc.Blocks, n)
		if err != nil {
			return nil, fmt.Errorf("chunk %d,%d blocks: %w", sc.CX, sc.CZ, err)
		}
		nibbles, err := encoding.DecodeRLE(sc.Meta, n)
		if err != nil {
			return nil, fmt.Errorf("chunk %d,%d meta: %w", sc.CX, sc.CZ, err)
		}
		if len(blocks) != n || len(nibbles) != n {
			return nil, fmt.Errorf("snapshot chunk %d,%d length mismatch: blocks=%d meta=%d want %d", sc.CX, sc.CZ, len(blocks), len(nibbles), n)
		}

		k := ChunkKey{Dim: sc.Dim, CX: sc.CX, CZ: sc.CZ}
		c := newChunk(k, sc.Height)
		copy(c.blocks, blocks)
		for i, m := range nibbles {
			if i%2 == 0 {
				c.meta[i/2] |= m & 0x0f
			} else {
				c.meta[i/2] |= (m & 0x0f) << 4
			}
		}
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				c.recomputeColumnLocked(x, z)
			}
		}
		if sc.Digest != "" {
			d := c.Digest()
			if hex.EncodeToString(d[:]) != sc.Digest {
				return nil, fmt.Errorf("snapshot chunk %d,%d digest mismatch", sc.CX, sc.CZ)
			}
		}
		store.chunks[k] = c
	}
	return store, nil
}
