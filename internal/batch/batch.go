// Package batch rates every conductor of a catalog under every condition of
// a condition set.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/catalog"
	"github.com/Agrid-Dev/linerating/internal/observability"
)

// Options tune a run. The zero value rates with GOMAXPROCS workers, keeps
// going on failed cells and does not log.
type Options struct {
	Concurrency int
	FailFast    bool
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// Cell is the outcome of one conductor/condition pair.
type Cell struct {
	Rating float64
	Err    error
}

func (c Cell) OK() bool { return c.Err == nil }

// Row holds the cells of one conductor, in condition order.
type Row struct {
	Entry catalog.Entry
	Cells []Cell
}

// Table is the rating matrix: rows follow the catalog order, columns the
// condition set order.
type Table struct {
	Conditions []catalog.Condition
	Rows       []Row
}

// Failures counts failed cells.
func (t Table) Failures() int {
	n := 0
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			if !c.OK() {
				n++
			}
		}
	}
	return n
}

// Run rates entries × conds. Cells are independent; a failed cell is
// recorded on the table unless FailFast is set, in which case the first
// failure aborts the run.
func Run(ctx context.Context, entries []catalog.Entry, conds []catalog.Condition, opt Options) (Table, error) {
	start := time.Now()
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := opt.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	t := Table{Conditions: conds, Rows: make([]Row, len(entries))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := rateRow(e, conds, opt)
			t.Rows[i] = row
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Table{}, err
	}

	if m := opt.Metrics; m != nil {
		m.BatchCells.Add(float64(len(entries) * len(conds)))
		m.BatchDuration.Observe(time.Since(start).Seconds())
	}
	log.Info("ratings table complete",
		"conductors", len(entries),
		"conditions", len(conds),
		"failed_cells", t.Failures(),
		"duration", time.Since(start),
	)
	return t, nil
}

func rateRow(e catalog.Entry, conds []catalog.Condition, opt Options) (Row, error) {
	row := Row{Entry: e, Cells: make([]Cell, len(conds))}
	for j, c := range conds {
		rating, err := ampacity.Calculate(e.Profile, c.Ambient)
		opt.Metrics.ObserveRating(c.Ambient, err)
		if err != nil {
			if opt.FailFast {
				return row, fmt.Errorf("%s/%s: %w", e.Codename, c.Description, err)
			}
			if opt.Logger != nil {
				opt.Logger.Debug("cell failed",
					"codename", e.Codename,
					"condition", c.Description,
					"category", ampacity.Category(err),
					"error", err,
				)
			}
		}
		row.Cells[j] = Cell{Rating: rating, Err: err}
	}
	return row, nil
}
