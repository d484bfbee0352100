// Package text renders scoring events as English sentences.
package text

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/scoring"
	"github.com/chacun/chacun-server-go/internal/game/tile"
)

var animalNames = map[tile.AnimalKind][2]string{
	tile.Mammoth: {"mammoth", "mammoths"},
	tile.Aurochs: {"aurochs", "aurochs"},
	tile.Deer:    {"deer", "deer"},
}

// English implements scoring.TextMaker. Numbers are formatted for the
// printer's locale.
type English struct {
	names   map[player.Color]string
	printer *message.Printer
}

var _ scoring.TextMaker = (*English)(nil)

// NewEnglish returns a text maker using names for the players. Players
// without a name are called by their colour.
func NewEnglish(names map[player.Color]string) *English {
	return NewEnglishFor(names, language.English)
}

// NewEnglishFor is NewEnglish with numbers formatted for tag.
func NewEnglishFor(names map[player.Color]string, tag language.Tag) *English {
	cp := make(map[player.Color]string, len(names))
	for c, n := range names {
		cp[c] = n
	}
	return &English{names: cp, printer: message.NewPrinter(tag)}
}

// ColorNames names each player after its colour, as "Red".
func ColorNames(players []player.Color) map[player.Color]string {
	names := make(map[player.Color]string, len(players))
	for _, c := range players {
		s := strings.ToLower(c.String())
		names[c] = strings.ToUpper(s[:1]) + s[1:]
	}
	return names
}

func (e *English) PlayerName(c player.Color) string {
	if n, ok := e.names[c]; ok {
		return n
	}
	return c.String()
}

func (e *English) Points(points int) string {
	return e.count(points, "point", "points")
}

func (e *English) PlayerClosedForestWithMenhir(c player.Color) string {
	return e.PlayerName(c) + " closed a forest containing a menhir and may therefore place a menhir tile."
}

func (e *English) PlayersScoredForest(scorers []player.Color, points, mushroomGroupCount, tileCount int) string {
	s := e.scored(scorers, points) + " a forest made of " + e.count(tileCount, "tile", "tiles")
	if mushroomGroupCount > 0 {
		s += " and " + e.count(mushroomGroupCount, "mushroom group", "mushroom groups")
	}
	return s + "."
}

func (e *English) PlayersScoredRiver(scorers []player.Color, points, fishCount, tileCount int) string {
	s := e.scored(scorers, points) + " a river made of " + e.count(tileCount, "tile", "tiles")
	if fishCount > 0 {
		s += " and containing " + e.count(fishCount, "fish", "fish")
	}
	return s + "."
}

func (e *English) PlayerScoredHuntingTrap(scorer player.Color, points int, animals map[tile.AnimalKind]int) string {
	return e.PlayerName(scorer) + " scored " + e.Points(points) +
		" by placing the hunting trap in a meadow surrounded by " + e.animals(animals) + "."
}

func (e *English) PlayerScoredLogboat(scorer player.Color, points, lakeCount int) string {
	return e.PlayerName(scorer) + " scored " + e.Points(points) +
		" by placing the logboat in a river system containing " + e.count(lakeCount, "lake", "lakes") + "."
}

func (e *English) PlayersScoredMeadow(scorers []player.Color, points int, animals map[tile.AnimalKind]int) string {
	return e.scored(scorers, points) + " a meadow containing " + e.animals(animals) + "."
}

func (e *English) PlayersScoredRiverSystem(scorers []player.Color, points, fishCount int) string {
	return e.scored(scorers, points) + " a river system containing " + e.count(fishCount, "fish", "fish") + "."
}

func (e *English) PlayersScoredPitTrap(scorers []player.Color, points int, animals map[tile.AnimalKind]int) string {
	return e.scored(scorers, points) + " a meadow containing the large pit trap surrounded by " + e.animals(animals) + "."
}

func (e *English) PlayersScoredRaft(scorers []player.Color, points, lakeCount int) string {
	return e.scored(scorers, points) + " a river system containing the raft and " + e.count(lakeCount, "lake", "lakes") + "."
}

func (e *English) PlayersWon(winners []player.Color, points int) string {
	switch len(winners) {
	case 0:
		return "The game ended without a winner."
	case 1:
		return e.join(winners) + " won the game with " + e.Points(points) + "!"
	default:
		return e.join(winners) + " won the game with " + e.Points(points) + " each!"
	}
}

func (e *English) ClickToOccupy() string {
	return "Click on the pawn or hut you want to place, or here to place none."
}

func (e *English) ClickToUnoccupy() string {
	return "Click on the pawn you want to take back, or here to take none."
}

func (e *English) count(n int, singular, plural string) string {
	if n == 1 {
		return e.printer.Sprintf("%d %s", n, singular)
	}
	return e.printer.Sprintf("%d %s", n, plural)
}

// scored starts a sentence crediting scorers as majority occupants.
func (e *English) scored(scorers []player.Color, points int) string {
	role := " as majority occupant of"
	if len(scorers) > 1 {
		role = " as majority occupants of"
	}
	return e.join(scorers) + " scored " + e.Points(points) + role
}

func (e *English) join(players []player.Color) string {
	sorted := append([]player.Color(nil), players...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	names := make([]string, len(sorted))
	for i, c := range sorted {
		names[i] = e.PlayerName(c)
	}
	return joinAnd(names)
}

// animals lists the counted animals, tigers excluded, mammoths first.
func (e *English) animals(counts map[tile.AnimalKind]int) string {
	var parts []string
	for _, k := range []tile.AnimalKind{tile.Mammoth, tile.Aurochs, tile.Deer} {
		if n := counts[k]; n > 0 {
			parts = append(parts, e.count(n, animalNames[k][0], animalNames[k][1]))
		}
	}
	if len(parts) == 0 {
		return "no animals"
	}
	return joinAnd(parts)
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
