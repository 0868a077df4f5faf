package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
	"github.com/hailam/chessengine/internal/uci"
)

// benchPositions are searched by bench; the node total is a signature of the
// search and changes whenever its behavior does.
var benchPositions = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1",
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "chessengine",
		Short:         "A UCI chess engine",
		Long:          "chessengine speaks UCI on stdin/stdout when run without a subcommand.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUCI(cmd, f)
		},
	}
	f.register(root)
	root.AddCommand(
		newUCICmd(f),
		newPerftCmd(),
		newBenchCmd(f),
		newAnalyzeCmd(f),
		newRecordsCmd(f),
	)
	return root
}

func newUCICmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "uci",
		Short: "Run the UCI protocol loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUCI(cmd, f)
		},
	}
}

// runUCI serves the protocol, and the metrics endpoint when configured, until
// quit or a signal.
func runUCI(cmd *cobra.Command, f *rootFlags) error {
	return withApp(cmd, f, false, func(a *app) error {
		hashMB, overhead, err := a.engineOptions()
		if err != nil {
			return err
		}
		eng := a.newEngine(hashMB, overhead)
		opts := uci.Options{
			Logger:       a.log.With(slog.String("component", "uci")),
			HashMB:       hashMB,
			MoveOverhead: overhead,
		}
		if a.store != nil {
			opts.Store = a.store
		}
		protocol := uci.New(eng, cmd.InOrStdin(), cmd.OutOrStdout(), opts)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer cancel()
			return protocol.Run(ctx)
		})
		if a.metrics != nil {
			g.Go(func() error {
				return a.metrics.Serve(ctx, a.cfg.Metrics.Addr, a.log.With(slog.String("component", "metrics")))
			})
		}
		return g.Wait()
	})
}

func parsePosition(fen string) (*board.Position, error) {
	if fen == "" || fen == "startpos" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(fen)
}

func newPerftCmd() *cobra.Command {
	var fen string
	var divide bool
	cmd := &cobra.Command{
		Use:   "perft <depth>",
		Short: "Count leaf nodes of the legal move tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, err := strconv.Atoi(args[0])
			if err != nil || depth < 1 {
				return fmt.Errorf("perft: bad depth %q", args[0])
			}
			pos, err := parsePosition(fen)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			start := time.Now()
			var nodes uint64
			if divide {
				for _, e := range pos.Divide(depth) {
					fmt.Fprintf(out, "%s: %d\n", e.Move, e.Nodes)
					nodes += e.Nodes
				}
				fmt.Fprintln(out)
			} else {
				nodes = pos.Perft(depth)
			}
			elapsed := time.Since(start)
			fmt.Fprintf(out, "Nodes: %d\nTime: %v\nNPS: %.0f\n", nodes, elapsed.Round(time.Millisecond), float64(nodes)/max(elapsed.Seconds(), 1e-9))
			return nil
		},
	}
	cmd.Flags().StringVar(&fen, "fen", "", "start position (default startpos)")
	cmd.Flags().BoolVar(&divide, "divide", false, "print the count below every root move")
	return cmd
}

func newBenchCmd(f *rootFlags) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Search a fixed set of positions and print the node signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 || depth >= engine.MaxPly {
				return fmt.Errorf("bench: bad depth %d", depth)
			}
			return withApp(cmd, f, false, func(a *app) error {
				eng := a.newEngine(a.cfg.Engine.HashMB, 0)
				return bench(cmd.Context(), cmd.OutOrStdout(), eng, depth)
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 6, "search depth per position")
	return cmd
}

func bench(ctx context.Context, out io.Writer, eng *engine.Engine, depth int) error {
	var nodes uint64
	var elapsed time.Duration
	for i, fen := range benchPositions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return fmt.Errorf("bench position %d: %w", i+1, err)
		}
		eng.NewGame()
		res := eng.Search(ctx, pos, engine.Limits{Depth: depth})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "Position %d/%d: %s %s nodes %d\n", i+1, len(benchPositions), res.Move, engine.ScoreToString(res.Score), res.Nodes)
		nodes += res.Nodes
		elapsed += res.Time
	}
	fmt.Fprintf(out, "\nTotal time (ms) : %d\nNodes searched  : %d\nNodes/second    : %.0f\n",
		elapsed.Milliseconds(), nodes, float64(nodes)/max(elapsed.Seconds(), 1e-9))
	return nil
}

func newAnalyzeCmd(f *rootFlags) *cobra.Command {
	var (
		fen      string
		depth    int
		moveTime time.Duration
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Search one position and print every iteration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(fen)
			if err != nil {
				return err
			}
			return withApp(cmd, f, false, func(a *app) error {
				eng := a.newEngine(a.cfg.Engine.HashMB, 0)
				out := cmd.OutOrStdout()
				eng.OnInfo = func(info engine.Info) {
					fmt.Fprintf(out, "depth %2d seldepth %2d score %-12s nodes %-10d %s\n",
						info.Depth, info.SelDepth, engine.ScoreToString(info.Score), info.Nodes,
						strings.Join(board.MovesToSAN(pos, info.PV), " "))
				}
				res := eng.Search(cmd.Context(), pos, engine.Limits{Depth: depth, MoveTime: moveTime})
				if res.Move == board.NoMove {
					fmt.Fprintf(out, "no legal moves (%s)\n", engine.ScoreToString(res.Score))
					return nil
				}
				fmt.Fprintf(out, "bestmove %s (%s) score %s id %s\n",
					res.Move, board.SAN(pos, res.Move), engine.ScoreToString(res.Score), res.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fen, "fen", "", "position to analyze (default startpos)")
	cmd.Flags().IntVar(&depth, "depth", 10, "maximum depth, 0 for none")
	cmd.Flags().DurationVar(&moveTime, "movetime", 0, "time limit, 0 for none")
	return cmd
}

func newRecordsCmd(f *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "records [id]",
		Short: "List stored analysis records, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, true, func(a *app) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					id, err := uuid.Parse(args[0])
					if err != nil {
						return fmt.Errorf("records: %w", err)
					}
					rec, err := a.store.GetRecord(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "id       %s\nfen      %s\nbestmove %s\nponder   %s\nscore    %s\ndepth    %d/%d\nnodes    %d\ntime     %v\npv       %s\ncreated  %s\n",
						rec.ID, rec.FEN, rec.BestMove, rec.Ponder, engine.ScoreToString(rec.Score),
						rec.Depth, rec.SelDepth, rec.Nodes, rec.Duration, strings.Join(rec.PV, " "),
						rec.CreatedAt.Format(time.RFC3339))
					return nil
				}
				recs, err := a.store.ListRecords(limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tMOVE\tSCORE\tDEPTH\tFEN")
				for _, rec := range recs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", rec.ID, rec.CreatedAt.Format(time.DateTime),
						rec.BestMove, engine.ScoreToString(rec.Score), rec.Depth, rec.FEN)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to list")
	return cmd
}
