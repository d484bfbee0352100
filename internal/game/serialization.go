package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/chacun/chacun-server-go/internal/game/area"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

// ChecksumVersion changes whenever the canonical representation does.
const ChecksumVersion = 1

// Checksum is a digest of a snapshot's canonical representation. Equal
// snapshots reached by any path have equal checksums.
type Checksum struct {
	Hash    string // hex BLAKE2b-256
	Version int
}

func (c Checksum) String() string { return fmt.Sprintf("v%d:%s", c.Version, c.Hash) }

// ComputeChecksum hashes the canonical representation of s. Message text
// is left out so the checksum does not depend on the text maker.
func ComputeChecksum(s *state.GameState) (Checksum, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Checksum{}, fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := h.Write([]byte(CanonicalText(s))); err != nil {
		return Checksum{}, fmt.Errorf("failed to compute hash: %w", err)
	}
	return Checksum{Hash: hex.EncodeToString(h.Sum(nil)), Version: ChecksumVersion}, nil
}

// VerifyChecksum reports whether s hashes to expected.
func VerifyChecksum(s *state.GameState, expected Checksum) (bool, error) {
	if expected.Version != ChecksumVersion {
		return false, fmt.Errorf("unsupported checksum version %d", expected.Version)
	}
	computed, err := ComputeChecksum(s)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// CanonicalText renders every rule-relevant part of s, one record per line.
// Collections are written in the order the rules define for them, so the
// text never depends on map iteration.
func CanonicalText(s *state.GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "PLAYERS:%s\n", joinColors(s.Players()))
	fmt.Fprintf(&buf, "NEXT:%s\n", s.NextAction())
	if t := s.TileToPlace(); t != nil {
		fmt.Fprintf(&buf, "TO_PLACE:%d\n", t.ID)
	}

	d := s.Decks()
	for _, pile := range []struct {
		name  string
		tiles []*tile.Tile
	}{{"START", d.Start}, {"NORMAL", d.Normal}, {"MENHIR", d.Menhir}} {
		ids := make([]int, len(pile.tiles))
		for i, t := range pile.tiles {
			ids[i] = t.ID
		}
		fmt.Fprintf(&buf, "DECK:%s:%s\n", pile.name, joinInts(ids))
	}

	b := s.Board()
	for _, p := range b.PlacedTiles() {
		occ := "-"
		if p.Occupant != nil {
			occ = p.Occupant.String()
		}
		fmt.Fprintf(&buf, "TILE:%d|%s|%s|%s|%s\n", p.ID(), p.Placer, p.Rotation, p.Pos, occ)
	}

	var cancelled []int
	for _, a := range b.CancelledAnimals() {
		cancelled = append(cancelled, a.ID)
	}
	fmt.Fprintf(&buf, "CANCELLED:%s\n", joinInts(cancelled))

	p := b.Partitions()
	writeAreas(&buf, "FOREST", p.Forests.Areas())
	writeAreas(&buf, "MEADOW", p.Meadows.Areas())
	writeAreas(&buf, "RIVER", p.Rivers.Areas())
	writeAreas(&buf, "WATER", p.Waters.Areas())

	for _, m := range s.Messages().Messages() {
		fmt.Fprintf(&buf, "MESSAGE:%s|%d|%s|%s\n", m.Kind, m.Points, joinColors(m.Scorers), joinInts(m.TileIDs))
	}
	return buf.String()
}

func writeAreas[Z tile.Zone](buf *bytes.Buffer, name string, areas []*area.Area[Z]) {
	for _, a := range areas {
		zones := a.Zones()
		ids := make([]int, len(zones))
		for i, z := range zones {
			ids[i] = z.ID()
		}
		fmt.Fprintf(buf, "%s:%s|%s|%d\n", name, joinInts(ids), joinColors(a.Occupants()), a.OpenConnections())
	}
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinColors(cs []player.Color) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
