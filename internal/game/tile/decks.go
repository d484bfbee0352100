package tile

// Decks holds the three draw piles. Drawing takes from the front.
// A Decks value is never modified once built; draws return a new value.
type Decks struct {
	Start  []*Tile
	Normal []*Tile
	Menhir []*Tile
}

func (d Decks) pile(kind Kind) []*Tile {
	switch kind {
	case KindStart:
		return d.Start
	case KindMenhir:
		return d.Menhir
	default:
		return d.Normal
	}
}

func (d Decks) withPile(kind Kind, pile []*Tile) Decks {
	switch kind {
	case KindStart:
		d.Start = pile
	case KindMenhir:
		d.Menhir = pile
	default:
		d.Normal = pile
	}
	return d
}

// Size returns the number of tiles left of the given kind.
func (d Decks) Size(kind Kind) int {
	return len(d.pile(kind))
}

// Top returns the next tile of the given kind, or nil when the pile is empty.
func (d Decks) Top(kind Kind) *Tile {
	p := d.pile(kind)
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// WithTopDrawn removes the next tile of the given kind. Drawing from an
// empty pile leaves the decks unchanged.
func (d Decks) WithTopDrawn(kind Kind) Decks {
	p := d.pile(kind)
	if len(p) == 0 {
		return d
	}
	return d.withPile(kind, p[1:])
}

// WithTopDrawnUntil discards tiles of the given kind until the top one
// satisfies keep or the pile is empty.
func (d Decks) WithTopDrawnUntil(kind Kind, keep func(*Tile) bool) Decks {
	p := d.pile(kind)
	for len(p) > 0 && !keep(p[0]) {
		p = p[1:]
	}
	return d.withPile(kind, p)
}
