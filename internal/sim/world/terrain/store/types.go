package store

import (
	"sync"

	"golang.org/x/crypto/blake2b"

	modelpkg "github.com/poizan42/mineserver/internal/sim/world/kernel/model"
)

const ChunkSize = 16

type ChunkKey struct {
	Dim int8
	CX  int
	CZ  int
}

// Chunk is a 16x16 column of Height cells. Meta packs two 4-bit values per
// byte, low nibble first.
type Chunk struct {
	Key    ChunkKey
	Height int

	mu        sync.RWMutex
	blocks    []byte
	meta      []byte
	heightMap [ChunkSize * ChunkSize]int16

	dirty bool
	hash  [32]byte
}

func newChunk(k ChunkKey, height int) *Chunk {
	n := ChunkSize * ChunkSize * height
	return &Chunk{
		Key:    k,
		Height: height,
		blocks: make([]byte, n),
		meta:   make([]byte, (n+1)/2),
		dirty:  true,
	}
}

func index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) getLocked(x, y, z int) modelpkg.Cell {
	i := index(x, y, z)
	m := c.meta[i/2]
	if i%2 == 0 {
		m &= 0x0f
	} else {
		m >>= 4
	}
	return modelpkg.Cell{Kind: c.blocks[i], Meta: m}
}

func (c *Chunk) setLocked(x, y, z int, cell modelpkg.Cell) {
	i := index(x, y, z)
	c.blocks[i] = cell.Kind
	m := cell.Meta & 0x0f
	if i%2 == 0 {
		c.meta[i/2] = c.meta[i/2]&0xf0 | m
	} else {
		c.meta[i/2] = c.meta[i/2]&0x0f | m<<4
	}
	c.dirty = true

	col := x + z*ChunkSize
	top := int(c.heightMap[col])
	switch {
	case cell.Kind != 0 && y >= top:
		c.heightMap[col] = int16(y + 1)
	case cell.Kind == 0 && y == top-1:
		c.recomputeColumnLocked(x, z)
	}
}

func (c *Chunk) recomputeColumnLocked(x, z int) {
	col := x + z*ChunkSize
	for y := c.Height - 1; y >= 0; y-- {
		if c.blocks[index(x, y, z)] != 0 {
			c.heightMap[col] = int16(y + 1)
			return
		}
	}
	c.heightMap[col] = 0
}

func (c *Chunk) Get(x, y, z int) modelpkg.Cell {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getLocked(x, y, z)
}

func (c *Chunk) Set(x, y, z int, cell modelpkg.Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(x, y, z, cell)
}

// ColumnHeight is the first air height above the highest non-air cell.
func (c *Chunk) ColumnHeight(x, z int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int(c.heightMap[x+z*ChunkSize])
}

// Digest is a blake2b-256 over blocks and meta, cached until the next write.
func (c *Chunk) Digest() [32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty || c.hash == ([32]byte{}) {
		h, _ := blake2b.New256(nil)
		h.Write(c.blocks)
		h.Write(c.meta)
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Height    int
	BoundaryR int // blocks, 0 = unbounded
	Layers    []byte
}

// ChunkStore is safe for concurrent use. The map lock only guards chunk
// lookup; cell access takes the owning chunk's lock.
type ChunkStore struct {
	Gen WorldGen

	mu     sync.RWMutex
	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	if gen.Height <= 0 {
		gen.Height = 128
	}
	return &ChunkStore{
		Gen:    gen,
		chunks: map[ChunkKey]*Chunk{},
	}
}
