package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/config"
	"github.com/hailam/chessengine/internal/engine"
	"github.com/hailam/chessengine/internal/storage"
)

const (
	engineName   = "ChessEngine"
	engineAuthor = "ChessEngine Team"
)

var errUsage = errors.New("bad command")

// OptionSaver persists option changes made with setoption.
type OptionSaver interface {
	SaveOptions(storage.EngineOptions) error
}

// Options configures the protocol handler.
type Options struct {
	Logger *slog.Logger
	Store  OptionSaver // nil disables persistence

	// Current engine settings, reported by "uci" and saved with every change.
	HashMB       int
	MoveOverhead time.Duration
}

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	log      *slog.Logger
	store    OptionSaver

	hashMB   int
	overhead time.Duration

	in    io.Reader
	outMu sync.Mutex
	out   io.Writer

	// Search state. done is closed after bestmove has been written.
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a protocol handler that reads commands from in and writes
// responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, opts Options) *UCI {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.HashMB <= 0 {
		opts.HashMB = config.DefaultHashMB
	}
	u := &UCI{
		engine:   eng,
		position: board.NewPosition(),
		log:      log,
		store:    opts.Store,
		hashMB:   opts.HashMB,
		overhead: opts.MoveOverhead,
		in:       in,
		out:      out,
	}
	eng.OnInfo = u.sendInfo
	return u
}

// Run reads commands until quit, end of input or ctx is done. A running
// search is stopped before Run returns.
func (u *UCI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(u.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	defer u.stopSearch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if !u.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Execute handles one command line. It returns false after quit.
func (u *UCI) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.stopSearch()
		u.engine.NewGame()
		u.position = board.NewPosition()
	case "position":
		u.stopSearch()
		err = u.handlePosition(args)
	case "go":
		u.stopSearch()
		err = u.handleGo(ctx, args)
	case "stop":
		u.stopSearch()
	case "quit":
		return false
	case "setoption":
		u.stopSearch()
		err = u.handleSetOption(args)
	case "ponderhit", "debug", "register":
		// accepted and ignored
	// Debug commands
	case "d":
		u.print(u.position.String())
	case "eval":
		u.handleEval()
	case "perft":
		u.stopSearch()
		err = u.handlePerft(args)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		u.log.Warn("command rejected", slog.String("command", line), slog.Any("error", err))
		u.printf("info string %v\n", err)
	}
	return true
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name " + engineName)
	u.println("id author " + engineAuthor)
	u.println("")
	u.printf("option name Hash type spin default %d min %d max %d\n", u.hashMB, config.MinHashMB, config.MaxHashMB)
	u.println("option name Clear Hash type button")
	u.printf("option name Move Overhead type spin default %d min 0 max %d\n", u.overhead.Milliseconds(), config.MaxMoveOverhead)
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// The current position is only replaced when every part is valid.
func (u *UCI) handlePosition(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: position needs startpos or fen", errUsage)
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		if movesAt != 1 {
			return fmt.Errorf("%w: unexpected %q after startpos", errUsage, args[1])
		}
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: position %q", errUsage, args[0])
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := board.ParseMove(s, pos)
			if err != nil {
				return err
			}
			pos.MakeMove(m)
		}
	}
	u.position = pos
	return nil
}

// parseLimits converts "go" arguments to search limits.
func parseLimits(args []string) (engine.Limits, error) {
	var limits engine.Limits
	for i := 0; i < len(args); i++ {
		key := args[i]
		if key == "infinite" {
			limits.Infinite = true
			continue
		}
		if key == "ponder" {
			// Ponder is not offered, so this is searched as a normal go
			continue
		}
		if i+1 >= len(args) {
			return limits, fmt.Errorf("%w: go %s needs a value", errUsage, key)
		}
		i++
		v, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			return limits, fmt.Errorf("%w: go %s %q", errUsage, key, args[i])
		}
		ms := time.Duration(v) * time.Millisecond
		switch key {
		case "depth":
			limits.Depth = int(max(v, 1))
		case "nodes":
			limits.Nodes = uint64(max(v, 1))
		case "movetime":
			limits.MoveTime = max(ms, time.Millisecond)
		case "wtime":
			// a flagged clock still has to produce a move
			limits.Time[board.White] = max(ms, time.Millisecond)
		case "btime":
			limits.Time[board.Black] = max(ms, time.Millisecond)
		case "winc":
			limits.Inc[board.White] = max(ms, 0)
		case "binc":
			limits.Inc[board.Black] = max(ms, 0)
		case "movestogo":
			limits.MovesToGo = int(max(v, 0))
		case "mate":
			limits.Depth = int(max(2*v-1, 1))
		default:
			return limits, fmt.Errorf("%w: go %s", errUsage, key)
		}
	}
	return limits, nil
}

// handleGo starts a search in the background. bestmove is written when it
// ends; an infinite search holds it back until stop.
func (u *UCI) handleGo(ctx context.Context, args []string) error {
	limits, err := parseLimits(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.cancel, u.done = cancel, done
	pos := u.position.Copy()

	go func() {
		defer close(done)
		res := u.engine.Search(ctx, pos, limits)
		if limits.Infinite {
			<-ctx.Done()
		}
		if res.Ponder != board.NoMove {
			u.printf("bestmove %s ponder %s\n", res.Move, res.Ponder)
			return
		}
		u.printf("bestmove %s\n", res.Move)
	}()
	return nil
}

// stopSearch ends the running search, if any, and waits for its bestmove.
func (u *UCI) stopSearch() {
	if u.done == nil {
		return
	}
	u.cancel()
	<-u.done
	u.cancel, u.done = nil, nil
}

// Wait blocks until the running search, if any, has written bestmove.
func (u *UCI) Wait() {
	if u.done != nil {
		<-u.done
	}
}

// formatScore renders a score as "cp N" or "mate N".
func formatScore(score int) string {
	if m, ok := engine.MateIn(score); ok {
		return fmt.Sprintf("mate %d", m)
	}
	return fmt.Sprintf("cp %d", score)
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.Info) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d score %s nodes %d nps %d hashfull %d time %d",
		info.Depth, info.SelDepth, formatScore(info.Score), info.Nodes, info.NPS, info.HashFull, info.Time.Milliseconds())
	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	sb.WriteByte('\n')
	u.print(sb.String())
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) error {
	// Format: setoption name <name> [value <value>]
	var name, value []string
	var cur *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			cur = &name
		case "value":
			cur = &value
		default:
			if cur == nil {
				return fmt.Errorf("%w: setoption %s", errUsage, strings.Join(args, " "))
			}
			*cur = append(*cur, arg)
		}
	}

	key := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")
	switch key {
	case "hash":
		mb, err := strconv.Atoi(val)
		if err != nil || mb < config.MinHashMB || mb > config.MaxHashMB {
			return fmt.Errorf("%w: Hash %q outside [%d, %d]", errUsage, val, config.MinHashMB, config.MaxHashMB)
		}
		u.engine.Resize(mb)
		u.hashMB = mb
		u.log.Info("hash resized", slog.Int("mb", mb))
	case "clear hash":
		u.engine.ClearHash()
		u.log.Info("hash cleared")
		return nil
	case "move overhead":
		ms, err := strconv.Atoi(val)
		if err != nil || ms < 0 || ms > config.MaxMoveOverhead {
			return fmt.Errorf("%w: Move Overhead %q outside [0, %d]", errUsage, val, config.MaxMoveOverhead)
		}
		u.overhead = time.Duration(ms) * time.Millisecond
		u.engine.SetMoveOverhead(u.overhead)
		u.log.Info("move overhead set", slog.Duration("overhead", u.overhead))
	default:
		return fmt.Errorf("%w: no such option %q", errUsage, strings.Join(name, " "))
	}
	u.saveOptions()
	return nil
}

func (u *UCI) saveOptions() {
	if u.store == nil {
		return
	}
	err := u.store.SaveOptions(storage.EngineOptions{
		HashMB:         u.hashMB,
		MoveOverheadMS: int(u.overhead.Milliseconds()),
	})
	if err != nil {
		u.log.Error("saving options", slog.Any("error", err))
	}
}

func (u *UCI) handleEval() {
	score := engine.EvaluateWhite(u.position)
	u.printf("Final evaluation %+.2f (white side)\n", float64(score)/100)
}

// handlePerft prints the node count below every root move and the total.
func (u *UCI) handlePerft(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: perft needs a depth", errUsage)
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		return fmt.Errorf("%w: perft depth %q", errUsage, args[0])
	}

	start := time.Now()
	var total uint64
	var sb strings.Builder
	for _, e := range u.position.Divide(depth) {
		fmt.Fprintf(&sb, "%s: %d\n", e.Move, e.Nodes)
		total += e.Nodes
	}
	elapsed := time.Since(start)
	fmt.Fprintf(&sb, "\nNodes searched: %d\n", total)
	u.print(sb.String())
	u.log.Debug("perft", slog.Int("depth", depth), slog.Uint64("nodes", total), slog.Duration("time", elapsed))
	return nil
}

func (u *UCI) print(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	io.WriteString(u.out, s)
}

func (u *UCI) println(s string) { u.print(s + "\n") }

func (u *UCI) printf(format string, args ...any) { u.print(fmt.Sprintf(format, args...)) }
