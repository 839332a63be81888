package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed blocks.json
var defaultBlocksJSON []byte

//go:embed blocks.schema.json
var blocksSchemaJSON []byte

const schemaURL = "mem://catalogs/blocks.schema.json"

// Air is the empty block kind.
const Air byte = 0

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
	Tools  ToolCatalog

	// Digest is the sha256 of the raw catalog file.
	Digest string
	Raw    []byte
}

type BlockCatalog struct {
	Defs   map[byte]BlockDef
	ByName map[string]byte
}

type BlockDef struct {
	ID           byte   `json:"id"`
	Name         string `json:"name"`
	Solid        bool   `json:"solid,omitempty"`
	Placeable    bool   `json:"placeable,omitempty"`
	InstantBreak bool   `json:"instant_break,omitempty"`
	Falls        bool   `json:"falls,omitempty"`
	Liquid       bool   `json:"liquid,omitempty"`
	NeedsSupport bool   `json:"needs_support,omitempty"`
	Orientation  string `json:"orientation,omitempty"` // "none","face","damage"
}

// ItemCatalog maps non-block items onto the block kind they place.
type ItemCatalog struct {
	Defs map[int16]ItemDef
}

type ItemDef struct {
	ID     int16  `json:"id"`
	Name   string `json:"name"`
	Places string `json:"places"`

	kind byte
}

type ToolCatalog struct {
	Defs map[int16]ToolDef
}

type ToolDef struct {
	ID         int16    `json:"id"`
	Name       string   `json:"name"`
	Durability int      `json:"durability"`
	Effective  []string `json:"effective,omitempty"`

	effective map[byte]bool
}

type catalogFile struct {
	Blocks []BlockDef `json:"blocks"`
	Items  []ItemDef  `json:"items"`
	Tools  []ToolDef  `json:"tools"`
}

// Load reads blocks.json from configDir. An empty configDir selects the
// built-in catalog.
func Load(configDir string) (*Catalogs, error) {
	if configDir == "" {
		return Parse(defaultBlocksJSON)
	}
	raw, err := os.ReadFile(filepath.Join(configDir, "blocks.json"))
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Default returns the built-in catalog.
func Default() *Catalogs {
	c, err := Parse(defaultBlocksJSON)
	if err != nil {
		panic(fmt.Sprintf("built-in block catalog: %v", err))
	}
	return c
}

func Parse(raw []byte) (*Catalogs, error) {
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	c := &Catalogs{
		Blocks: BlockCatalog{Defs: map[byte]BlockDef{}, ByName: map[string]byte{}},
		Items:  ItemCatalog{Defs: map[int16]ItemDef{}},
		Tools:  ToolCatalog{Defs: map[int16]ToolDef{}},
		Digest: sha256Hex(raw),
		Raw:    raw,
	}
	for _, d := range f.Blocks {
		if _, dup := c.Blocks.Defs[d.ID]; dup {
			return nil, fmt.Errorf("blocks.json: duplicate block id %d", d.ID)
		}
		if _, dup := c.Blocks.ByName[d.Name]; dup {
			return nil, fmt.Errorf("blocks.json: duplicate block name %q", d.Name)
		}
		if d.Orientation == "" {
			d.Orientation = "none"
		}
		c.Blocks.Defs[d.ID] = d
		c.Blocks.ByName[d.Name] = d.ID
	}
	if d, ok := c.Blocks.Defs[Air]; !ok || d.Solid || d.Placeable {
		return nil, fmt.Errorf("blocks.json: block 0 must be a non-solid, non-placeable air kind")
	}

	for _, it := range f.Items {
		k, ok := c.Blocks.ByName[it.Places]
		if !ok {
			return nil, fmt.Errorf("blocks.json: item %s places unknown block %q", it.Name, it.Places)
		}
		it.kind = k
		c.Items.Defs[it.ID] = it
	}
	for _, td := range f.Tools {
		td.effective = map[byte]bool{}
		for _, name := range td.Effective {
			k, ok := c.Blocks.ByName[name]
			if !ok {
				return nil, fmt.Errorf("blocks.json: tool %s lists unknown block %q", td.Name, name)
			}
			td.effective[k] = true
		}
		c.Tools.Defs[td.ID] = td
	}
	return c, nil
}

func validate(raw []byte) error {
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(schemaURL, bytes.NewReader(blocksSchemaJSON)); err != nil {
		return err
	}
	schema, err := comp.Compile(schemaURL)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (c *BlockCatalog) Def(kind byte) (BlockDef, bool) {
	d, ok := c.Defs[kind]
	return d, ok
}

func (c *BlockCatalog) Name(kind byte) string {
	if d, ok := c.Defs[kind]; ok {
		return d.Name
	}
	return fmt.Sprintf("block_%d", kind)
}

func (c *BlockCatalog) IsLiquid(kind byte) bool { return c.Defs[kind].Liquid }

func (c *BlockCatalog) Falls(kind byte) bool { return c.Defs[kind].Falls }

func (c *BlockCatalog) InstantBreak(kind byte) bool { return c.Defs[kind].InstantBreak }

func (c *BlockCatalog) NeedsSupport(kind byte) bool { return c.Defs[kind].NeedsSupport }

// KindsWhere lists the block kinds matching pred in ascending order.
func (c *BlockCatalog) KindsWhere(pred func(BlockDef) bool) []byte {
	var out []byte
	for k, d := range c.Defs {
		if pred(d) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PlaceAs resolves a held item id to the block kind it places.
func (c *Catalogs) PlaceAs(itemID int16) (byte, bool) {
	if itemID >= 0 && itemID < 256 {
		d, ok := c.Blocks.Defs[byte(itemID)]
		if !ok || !d.Placeable {
			return 0, false
		}
		return d.ID, true
	}
	if it, ok := c.Items.Defs[itemID]; ok {
		return it.kind, true
	}
	return 0, false
}

func (c *ToolCatalog) Def(itemID int16) (ToolDef, bool) {
	d, ok := c.Defs[itemID]
	return d, ok
}

// EffectiveOn reports whether the tool is the right one for kind.
func (t ToolDef) EffectiveOn(kind byte) bool { return t.effective[kind] }
