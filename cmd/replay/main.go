// Command replay rebuilds a game from its seed, seating and action log and
// prints the scoring messages, the totals and the final checksum.
//
// The log comes from an actions file (one action per line, "-" for
// stdin), a saved replay file or the configured game store. With -list it
// prints the games in the configured store instead.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/catalog"
	"github.com/chacun/chacun-server-go/internal/config"
	"github.com/chacun/chacun-server-go/internal/game"
	"github.com/chacun/chacun-server-go/internal/game/player"
	"github.com/chacun/chacun-server-go/internal/game/state"
	"github.com/chacun/chacun-server-go/internal/repository"
	"github.com/chacun/chacun-server-go/internal/text"
)

// Exit codes.
const (
	exitOK        = 0
	exitUsage     = 2
	exitFailure   = 1
	exitIntegrity = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	catalogPath string
	seed        uint64
	players     string
	actionsPath string
	replayDir   string
	gameID      string
	verbose     bool
	list        bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configPath, "config", "", "configuration file; selects the game store and tile catalog")
	fs.StringVar(&o.catalogPath, "catalog", "", "tile catalog file (default: embedded tile set)")
	fs.Uint64Var(&o.seed, "seed", 0, "seed that dealt the decks")
	fs.StringVar(&o.players, "players", "RED,BLUE", "comma-separated seating order")
	fs.StringVar(&o.actionsPath, "actions", "", `actions file, one action per line, or "-" for stdin`)
	fs.StringVar(&o.replayDir, "replay-dir", "", "directory of saved replays; used with -game")
	fs.StringVar(&o.gameID, "game", "", "game id to load from -replay-dir or the configured store")
	fs.BoolVar(&o.verbose, "v", false, "log every step")
	fs.BoolVar(&o.list, "list", false, "list the games in the configured store")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := zap.NewNop()
	if o.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	if o.list {
		if err := list(stdout, o.configPath, logger); err != nil {
			fmt.Fprintf(stderr, "replay: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	replay, tilesPath, err := load(o, stdin, logger)
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		return exitFailure
	}
	tiles, err := catalog.LoadFile(tilesPath)
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		return exitFailure
	}

	states, err := replay.Run(catalog.Decks(tiles, replay.Seed), text.NewEnglish(text.ColorNames(replay.Players)))
	if len(states) > 0 {
		report(stdout, replay, states[len(states)-1], len(states)-1)
	}
	if err != nil {
		fmt.Fprintf(stderr, "replay: %v\n", err)
		if errors.Is(err, game.ErrReplayIntegrity) {
			return exitIntegrity
		}
		return exitFailure
	}
	logger.Debug("replay complete", zap.String("game_id", replay.GameID), zap.Int("actions", len(replay.Actions)))
	return exitOK
}

// load builds the replay to run and returns the catalog path to deal from.
func load(o options, stdin io.Reader, logger *zap.Logger) (*game.Replay, string, error) {
	catalogPath := o.catalogPath

	if o.gameID != "" && o.replayDir != "" {
		r, err := game.LoadReplayFromFile(o.replayDir, o.gameID)
		return r, catalogPath, err
	}

	if o.gameID != "" {
		if o.configPath == "" {
			return nil, "", fmt.Errorf("-game needs -replay-dir or -config")
		}
		store, cfg, err := openStore(o.configPath, logger)
		if err != nil {
			return nil, "", err
		}
		defer store.Close()
		if catalogPath == "" {
			catalogPath = cfg.Game.Catalog
		}
		rec, err := store.LoadGame(context.Background(), o.gameID)
		if err != nil {
			return nil, "", err
		}
		players, err := parsePlayers(strings.Join(rec.Players, ","))
		if err != nil {
			return nil, "", err
		}
		r := game.NewReplay(rec.ID, rec.Seed, players)
		r.Actions = rec.Actions
		return r, catalogPath, nil
	}

	if o.actionsPath == "" {
		return nil, "", fmt.Errorf("one of -actions or -game is required")
	}
	players, err := parsePlayers(o.players)
	if err != nil {
		return nil, "", err
	}
	in := stdin
	if o.actionsPath != "-" {
		f, err := os.Open(o.actionsPath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		in = f
	}
	actions, err := readActions(in)
	if err != nil {
		return nil, "", err
	}
	r := game.NewReplay("", o.seed, players)
	r.Actions = actions
	return r, catalogPath, nil
}

func openStore(configPath string, logger *zap.Logger) (repository.Store, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := repository.Open(context.Background(), cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, fmt.Errorf("no game store configured in %s", configPath)
	}
	return store, cfg, nil
}

func list(w io.Writer, configPath string, logger *zap.Logger) error {
	if configPath == "" {
		return fmt.Errorf("-list needs -config")
	}
	store, _, err := openStore(configPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.ListGames(context.Background())
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Fprintf(w, "%s  %-24s %4d actions  updated %s\n",
			g.ID, strings.Join(g.Players, ","), g.ActionCount, humanize.Time(g.UpdatedAt))
	}
	return nil
}

func parsePlayers(s string) ([]player.Color, error) {
	var players []player.Color
	for _, name := range strings.Split(s, ",") {
		c, err := player.ParseColor(name)
		if err != nil {
			return nil, err
		}
		players = append(players, c)
	}
	return players, nil
}

// readActions reads whitespace-separated actions. Lines starting with #
// are comments.
func readActions(r io.Reader) ([]string, error) {
	var actions []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		actions = append(actions, strings.Fields(line)...)
	}
	return actions, sc.Err()
}

func report(w io.Writer, r *game.Replay, s *state.GameState, applied int) {
	names := make([]string, len(r.Players))
	for i, c := range r.Players {
		names[i] = c.String()
	}
	fmt.Fprintf(w, "players: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "seed: %d\n", r.Seed)
	fmt.Fprintf(w, "actions: %d/%d\n", applied, len(r.Actions))
	fmt.Fprintf(w, "next: %s\n", s.NextAction())

	for _, m := range s.Messages().Messages() {
		fmt.Fprintf(w, "  %s\n", m.Text)
	}

	totals := s.Messages().Points()
	players := s.Players()
	sort.SliceStable(players, func(i, j int) bool { return totals[players[i]] > totals[players[j]] })
	for _, c := range players {
		fmt.Fprintf(w, "%-7s %d\n", c, totals[c])
	}

	if sum, err := game.ComputeChecksum(s); err == nil {
		fmt.Fprintf(w, "checksum: %s\n", sum)
	}
}
