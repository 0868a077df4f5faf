package storage

import (
	"log/slog"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
)

// NewRecord summarizes a search result. The PV is rendered in SAN when the
// result's FEN parses, in coordinate notation otherwise.
func NewRecord(res engine.Result) AnalysisRecord {
	rec := AnalysisRecord{
		ID:       res.ID,
		FEN:      res.FEN,
		BestMove: res.Move.String(),
		Score:    res.Score,
		Depth:    res.Depth,
		SelDepth: res.SelDepth,
		Nodes:    res.Nodes,
		Duration: res.Time,
	}
	if res.Ponder != board.NoMove {
		rec.Ponder = res.Ponder.String()
	}
	if pos, err := board.ParseFEN(res.FEN); err == nil {
		rec.PV = board.MovesToSAN(pos, res.PV)
	} else {
		for _, m := range res.PV {
			rec.PV = append(rec.PV, m.String())
		}
	}
	return rec
}

// Recorder is an engine.Observer that stores every finished search.
type Recorder struct {
	Store *Storage
	Log   *slog.Logger
}

func (r *Recorder) ObserveSearch(res engine.Result) {
	if res.Move == board.NoMove {
		return
	}
	rec := NewRecord(res)
	if err := r.Store.SaveRecord(&rec); err != nil && r.Log != nil {
		r.Log.Warn("saving analysis record failed", slog.String("id", rec.ID.String()), slog.Any("error", err))
	}
}
