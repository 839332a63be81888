package model

// Cell is the content of one world position: a block kind and a 4-bit meta.
type Cell struct {
	Kind byte
	Meta byte
}

func (c Cell) Empty() bool { return c.Kind == 0 }

// Item is an inventory stack.
type Item struct {
	ID     int16
	Count  int8
	Damage int16
}

func NoItem() Item { return Item{ID: -1} }

func (it Item) Empty() bool { return it.ID < 0 || it.Count <= 0 }
