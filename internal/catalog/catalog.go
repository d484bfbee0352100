// Package catalog loads tile sets from YAML and deals them into decks.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chacun/chacun-server-go/internal/game/tile"
)

//go:embed tiles.yaml
var defaultTiles []byte

// ErrInvalidCatalog is returned for catalogues that do not describe a valid tile set.
var ErrInvalidCatalog = errors.New("invalid tile catalog")

type fileSpec struct {
	Tiles []tileSpec `yaml:"tiles"`
}

type tileSpec struct {
	ID    int        `yaml:"id"`
	Kind  string     `yaml:"kind"`
	Zones []zoneSpec `yaml:"zones"`
	Sides sidesSpec  `yaml:"sides"`
}

type zoneSpec struct {
	Local   int      `yaml:"local"`
	Type    string   `yaml:"type"`
	Forest  string   `yaml:"forest"`
	Animals []string `yaml:"animals"`
	Fish    int      `yaml:"fish"`
	Lake    *int     `yaml:"lake"`
	Power   string   `yaml:"power"`
}

type sidesSpec struct {
	N []int `yaml:"n"`
	E []int `yaml:"e"`
	S []int `yaml:"s"`
	W []int `yaml:"w"`
}

// Default returns the embedded tile set.
func Default() ([]*tile.Tile, error) {
	return Load(bytes.NewReader(defaultTiles))
}

// LoadFile loads a catalogue from path, or the embedded one if path is empty.
func LoadFile(path string) ([]*tile.Tile, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalogue. It requires exactly one start tile and
// distinct tile ids.
func Load(r io.Reader) ([]*tile.Tile, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	tiles := make([]*tile.Tile, 0, len(spec.Tiles))
	seen := make(map[int]bool)
	starts := 0
	for _, ts := range spec.Tiles {
		if seen[ts.ID] {
			return nil, fmt.Errorf("%w: duplicate tile id %d", ErrInvalidCatalog, ts.ID)
		}
		seen[ts.ID] = true
		t, err := ts.build()
		if err != nil {
			return nil, fmt.Errorf("%w: tile %d: %w", ErrInvalidCatalog, ts.ID, err)
		}
		if t.Kind == tile.KindStart {
			starts++
		}
		tiles = append(tiles, t)
	}
	if starts != 1 {
		return nil, fmt.Errorf("%w: %d start tiles", ErrInvalidCatalog, starts)
	}
	return tiles, nil
}

func (ts tileSpec) build() (*tile.Tile, error) {
	if ts.ID < 0 {
		return nil, fmt.Errorf("negative id")
	}
	kind := tile.KindNormal
	if ts.Kind != "" {
		k, err := tile.ParseKind(strings.ToUpper(ts.Kind))
		if err != nil {
			return nil, err
		}
		kind = k
	}

	zones, err := ts.zones()
	if err != nil {
		return nil, err
	}
	t := &tile.Tile{ID: ts.ID, Kind: kind}
	for _, s := range []struct {
		dst   *tile.Side
		local []int
		name  string
	}{
		{&t.N, ts.Sides.N, "n"},
		{&t.E, ts.Sides.E, "e"},
		{&t.S, ts.Sides.S, "s"},
		{&t.W, ts.Sides.W, "w"},
	} {
		side, err := buildSide(zones, s.local)
		if err != nil {
			return nil, fmt.Errorf("side %s: %w", s.name, err)
		}
		*s.dst = side
	}
	return t, nil
}

// zones builds every zone of the tile, keyed by local id. Lakes are built
// first so rivers can point at them.
func (ts tileSpec) zones() (map[int]tile.Zone, error) {
	zones := make(map[int]tile.Zone)
	specs := append([]zoneSpec(nil), ts.Zones...)
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Type == "lake" && specs[j].Type != "lake" })

	for _, z := range specs {
		if z.Local < 0 || z.Local > 9 {
			return nil, fmt.Errorf("local id %d out of range", z.Local)
		}
		if _, dup := zones[z.Local]; dup {
			return nil, fmt.Errorf("duplicate local id %d", z.Local)
		}
		if z.Fish < 0 {
			return nil, fmt.Errorf("zone %d: negative fish count", z.Local)
		}
		id := tile.ZoneID(ts.ID*10 + z.Local)
		power, err := parsePower(z.Power)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", z.Local, err)
		}

		switch z.Type {
		case "forest":
			kind, err := tile.ParseForestKind(strings.ToUpper(z.Forest))
			if err != nil {
				return nil, fmt.Errorf("zone %d: %w", z.Local, err)
			}
			zones[z.Local] = tile.Forest{ZoneID: id, Kind: kind}
		case "meadow":
			m := tile.Meadow{ZoneID: id, Power: power}
			for i, a := range z.Animals {
				k, err := tile.ParseAnimalKind(strings.ToUpper(a))
				if err != nil {
					return nil, fmt.Errorf("zone %d: %w", z.Local, err)
				}
				m.Animals = append(m.Animals, tile.Animal{ID: int(id)*100 + i, Kind: k})
			}
			zones[z.Local] = m
		case "lake":
			zones[z.Local] = tile.Lake{ZoneID: id, Fish: z.Fish, Power: power}
		case "river":
			r := tile.River{ZoneID: id, Fish: z.Fish}
			if z.Lake != nil {
				l, ok := zones[*z.Lake].(tile.Lake)
				if !ok {
					return nil, fmt.Errorf("zone %d: lake %d not found", z.Local, *z.Lake)
				}
				r.Lake = &l
			}
			zones[z.Local] = r
		default:
			return nil, fmt.Errorf("zone %d: unknown type %q", z.Local, z.Type)
		}
	}
	return zones, nil
}

func parsePower(s string) (tile.SpecialPower, error) {
	if s == "" {
		return tile.NoPower, nil
	}
	return tile.ParseSpecialPower(strings.ToUpper(s))
}

func buildSide(zones map[int]tile.Zone, local []int) (tile.Side, error) {
	switch len(local) {
	case 1:
		switch z := zones[local[0]].(type) {
		case tile.Forest:
			return tile.ForestSide{Forest: z}, nil
		case tile.Meadow:
			return tile.MeadowSide{Meadow: z}, nil
		default:
			return nil, fmt.Errorf("zone %d is not a forest or meadow", local[0])
		}
	case 3:
		m1, ok1 := zones[local[0]].(tile.Meadow)
		r, ok2 := zones[local[1]].(tile.River)
		m2, ok3 := zones[local[2]].(tile.Meadow)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("river side must be meadow, river, meadow")
		}
		return tile.RiverSide{Meadow1: m1, River: r, Meadow2: m2}, nil
	default:
		return nil, fmt.Errorf("side lists %d zones", len(local))
	}
}

// Decks deals tiles into decks, shuffling the normal and menhir piles
// with a PCG generator seeded by seed. Equal seeds deal equal decks.
func Decks(tiles []*tile.Tile, seed uint64) tile.Decks {
	var d tile.Decks
	for _, t := range tiles {
		switch t.Kind {
		case tile.KindStart:
			d.Start = append(d.Start, t)
		case tile.KindMenhir:
			d.Menhir = append(d.Menhir, t)
		default:
			d.Normal = append(d.Normal, t)
		}
	}
	byID := func(pile []*tile.Tile) {
		sort.Slice(pile, func(i, j int) bool { return pile[i].ID < pile[j].ID })
	}
	byID(d.Normal)
	byID(d.Menhir)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(d.Normal), func(i, j int) { d.Normal[i], d.Normal[j] = d.Normal[j], d.Normal[i] })
	rng.Shuffle(len(d.Menhir), func(i, j int) { d.Menhir[i], d.Menhir[j] = d.Menhir[j], d.Menhir[i] })
	return d
}
