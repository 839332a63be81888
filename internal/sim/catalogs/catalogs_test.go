package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Digest == "" {
		t.Fatalf("expected digest")
	}

	sand := c.Blocks.ByName["sand"]
	if !c.Blocks.Falls(sand) {
		t.Fatalf("sand should fall")
	}
	if !c.Blocks.IsLiquid(c.Blocks.ByName["water"]) {
		t.Fatalf("water should be liquid")
	}
	if !c.Blocks.InstantBreak(c.Blocks.ByName["torch"]) {
		t.Fatalf("torch should break instantly")
	}
	if c.Blocks.InstantBreak(c.Blocks.ByName["stone"]) {
		t.Fatalf("stone should not break instantly")
	}

	if k, ok := c.PlaceAs(int16(sand)); !ok || k != sand {
		t.Fatalf("PlaceAs(sand)=%d,%v", k, ok)
	}
	if k, ok := c.PlaceAs(338); !ok || k != c.Blocks.ByName["reed"] {
		t.Fatalf("PlaceAs(reeds item)=%d,%v", k, ok)
	}
	if _, ok := c.PlaceAs(int16(c.Blocks.ByName["bedrock"])); ok {
		t.Fatalf("bedrock should not be placeable")
	}
	if _, ok := c.PlaceAs(270); ok {
		t.Fatalf("tools do not place blocks")
	}

	pick, ok := c.Tools.Def(270)
	if !ok || pick.Durability != 60 {
		t.Fatalf("wooden pickaxe: %+v %v", pick, ok)
	}
	if !pick.EffectiveOn(c.Blocks.ByName["stone"]) || pick.EffectiveOn(c.Blocks.ByName["dirt"]) {
		t.Fatalf("wooden pickaxe effectiveness mismatch")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	raw := `{"blocks":[{"id":0,"name":"air"},{"id":1,"name":"stone","solid":true,"placeable":true}]}`
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Blocks.Defs) != 2 || c.Blocks.Defs[1].Orientation != "none" {
		t.Fatalf("unexpected defs: %+v", c.Blocks.Defs)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"schema: unknown field":  `{"blocks":[{"id":0,"name":"air","color":"red"}]}`,
		"schema: id range":       `{"blocks":[{"id":0,"name":"air"},{"id":300,"name":"big"}]}`,
		"missing air":            `{"blocks":[{"id":1,"name":"stone"}]}`,
		"duplicate id":           `{"blocks":[{"id":0,"name":"air"},{"id":0,"name":"void"}]}`,
		"item places unknown":    `{"blocks":[{"id":0,"name":"air"}],"items":[{"id":300,"name":"x","places":"nope"}]}`,
		"tool effective unknown": `{"blocks":[{"id":0,"name":"air"}],"tools":[{"id":300,"name":"x","durability":5,"effective":["nope"]}]}`,
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
