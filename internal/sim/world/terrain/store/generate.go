package store

import genpkg "github.com/poizan42/mineserver/internal/sim/world/terrain/gen"

// GenerateChunk fills a fresh chunk from the flat layer list. Only the
// overworld (dimension 0) is layered; other dimensions start empty.
func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	if ch.Key.Dim != 0 {
		return
	}
	flat := genpkg.Flat{Layers: s.Gen.Layers}
	top := flat.SurfaceY()
	if top > ch.Height {
		top = ch.Height
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for y := 0; y < top; y++ {
		b := flat.BlockAt(y)
		if b == 0 {
			continue
		}
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				ch.blocks[index(x, y, z)] = b
			}
		}
	}
	for i := range ch.heightMap {
		ch.heightMap[i] = int16(top)
	}
	ch.dirty = true
}
