package store

import (
	"sort"

	modelpkg "github.com/poizan42/mineserver/internal/sim/world/kernel/model"
	genpkg "github.com/poizan42/mineserver/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(p modelpkg.Pos) bool {
	if p.Y < 0 || p.Y >= s.Gen.Height {
		return false
	}
	if r := s.Gen.BoundaryR; r > 0 {
		if p.X < -r || p.X > r || p.Z < -r || p.Z > r {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.RLock()
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Dim != keys[j].Dim {
			return keys[i].Dim < keys[j].Dim
		}
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) LoadedChunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func locate(p modelpkg.Pos) (ChunkKey, int, int) {
	k := ChunkKey{Dim: p.Dim, CX: genpkg.FloorDiv(p.X, ChunkSize), CZ: genpkg.FloorDiv(p.Z, ChunkSize)}
	return k, genpkg.Mod(p.X, ChunkSize), genpkg.Mod(p.Z, ChunkSize)
}

// Get returns the cell at p, or false when p is not addressable.
func (s *ChunkStore) Get(p modelpkg.Pos) (modelpkg.Cell, bool) {
	if !s.InBounds(p) {
		return modelpkg.Cell{}, false
	}
	k, lx, lz := locate(p)
	return s.GetOrGenChunk(k).Get(lx, p.Y, lz), true
}

// Set writes cell at p and reports whether p was addressable.
func (s *ChunkStore) Set(p modelpkg.Pos, cell modelpkg.Cell) bool {
	if !s.InBounds(p) {
		return false
	}
	k, lx, lz := locate(p)
	s.GetOrGenChunk(k).Set(lx, p.Y, lz, cell)
	return true
}

// Height returns the first air height of the column at (x, z).
func (s *ChunkStore) Height(dim int8, x, z int) int {
	p := modelpkg.Pos{X: x, Z: z, Dim: dim}
	if r := s.Gen.BoundaryR; r > 0 && (x < -r || x > r || z < -r || z > r) {
		return 0
	}
	k, lx, lz := locate(p)
	return s.GetOrGenChunk(k).ColumnHeight(lx, lz)
}

func (s *ChunkStore) GetOrGenChunk(k ChunkKey) *Chunk {
	s.mu.RLock()
	ch, ok := s.chunks[k]
	s.mu.RUnlock()
	if ok {
		return ch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch = newChunk(k, s.Gen.Height)
	s.GenerateChunk(ch)
	s.chunks[k] = ch
	return ch
}
