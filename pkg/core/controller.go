// Package core drives simulations: validate, plan, then tick until arrival.
package core

import (
	"context"
	"errors"
	"log/slog"

	"pigeonflight/pkg/config"
	"pigeonflight/pkg/logging"
	"pigeonflight/pkg/model"
	"pigeonflight/pkg/sim"
	"pigeonflight/pkg/terrain"
	"pigeonflight/pkg/tracker"
)

// ErrTickLimit stops a run that exceeded the configured max ticks.
var ErrTickLimit = errors.New("tick limit reached")

// Controller runs simulations. It holds no per-run state, so one Controller
// can serve any number of concurrent runs.
type Controller struct {
	model    terrain.Model
	maxTicks int
	newTicks func() sim.TickSource
	tracker  *tracker.Tracker
	logger   *slog.Logger
}

// NewController creates a Controller paced by wall-clock ticks.
func NewController(cfg config.SimConfig, m terrain.Model, tr *tracker.Tracker) *Controller {
	interval := cfg.TickInterval.Std()
	return &Controller{
		model:    m,
		maxTicks: cfg.MaxTicks,
		newTicks: func() sim.TickSource { return sim.NewTimerTicks(interval) },
		tracker:  tr,
		logger:   slog.With("component", "controller"),
	}
}

// SetTickSource replaces the pacing of future runs, e.g. with sim.ManualTicks.
func (c *Controller) SetTickSource(f func() sim.TickSource) {
	c.newTicks = f
}

// Run validates cmd, emits the planned path, then emits one update per tick
// until the pigeon arrives. It returns ctx.Err() if canceled and
// ErrTickLimit if the run was cut short; no event is emitted for either.
func (c *Controller) Run(ctx context.Context, cmd model.InitCommand, sink Sink) (Summary, error) {
	if err := cmd.Validate(); err != nil {
		if c.tracker != nil {
			c.tracker.TrackRunRejected()
		}
		return Summary{}, err
	}

	s := NewSimulation(*cmd.Start, *cmd.End, c.model)
	logger := c.logger.With("run_id", s.ID)
	logger.Info("Simulation started",
		"start", s.Start, "end", s.End,
		"grid_nodes", s.Grid.Len(),
		"route", s.Route.Outcome,
		"waypoints", len(s.Route.Path),
		"expanded", s.Route.Expanded)
	if c.tracker != nil {
		c.tracker.TrackRunStarted()
	}

	sink.Emit(model.NewPathEvent(s.Route.Path))

	ticks := c.newTicks()
	defer ticks.Stop()
	err := c.fly(ctx, s, ticks, sink, logger)

	sum := s.summary()
	if d, ok := sink.(interface{ Dropped() int64 }); ok {
		sum.Dropped = d.Dropped()
	}
	c.finish(sum, err, logger)
	return sum, err
}

func (c *Controller) fly(ctx context.Context, s *Simulation, ticks sim.TickSource, sink Sink, logger *slog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.maxTicks > 0 && s.Ticks >= c.maxTicks {
			return ErrTickLimit
		}
		if err := ticks.Wait(ctx); err != nil {
			return err
		}

		next, upd, flying := sim.Step(s.State, s.End, c.model)
		s.State = next
		if !flying {
			return nil
		}
		s.Ticks++
		s.Trail.Push(upd.Position)

		sink.Emit(model.NewUpdateEvent(upd.Position, upd.Speed, upd.Energy, upd.Elevation))
		logging.Trace(logger, "tick", "n", s.Ticks, "pos", upd.Position, "speed", upd.Speed, "energy", upd.Energy)
	}
}

func (c *Controller) finish(sum Summary, err error, logger *slog.Logger) {
	canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if c.tracker != nil {
		c.tracker.TrackRunFinished(sum.Ticks, sum.Arrived, canceled, sum.Dropped)
	}

	attrs := []any{"ticks", sum.Ticks, "arrived", sum.Arrived, "energy", sum.Final.Energy, "dropped", sum.Dropped, "elapsed", sum.Elapsed}
	switch {
	case err == nil:
		logger.Info("Simulation finished", attrs...)
	case canceled:
		logger.Info("Simulation canceled", attrs...)
	default:
		logger.Warn("Simulation aborted", append(attrs, "error", err)...)
	}

	logging.LogRun(&logging.RunEntry{
		ID:      sum.RunID,
		Outcome: string(sum.Outcome),
		Ticks:   sum.Ticks,
		Arrived: sum.Arrived,
		Dropped: sum.Dropped,
		Err:     err,
	})
}
