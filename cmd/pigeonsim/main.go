// Command pigeonsim flies simulations without a server. Each init command
// read from stdin (or given by -start/-end) produces the same JSON messages
// a WebSocket client would receive, one per line on stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"pigeonflight/pkg/config"
	"pigeonflight/pkg/core"
	"pigeonflight/pkg/geo"
	"pigeonflight/pkg/logging"
	"pigeonflight/pkg/model"
	"pigeonflight/pkg/sim"
	"pigeonflight/pkg/terrain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pigeonsim: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	start, end string
	interval   time.Duration
	maxTicks   int
	summary    bool
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := config.DefaultConfig().Sim

	var o options
	fs := flag.NewFlagSet("pigeonsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.start, "start", "", "Start point as lat,lng (with -end: fly one route instead of reading stdin)")
	fs.StringVar(&o.end, "end", "", "End point as lat,lng")
	fs.DurationVar(&o.interval, "interval", 0, "Tick interval; 0 runs as fast as possible")
	fs.IntVar(&o.maxTicks, "max-ticks", defaults.MaxTicks, "Abort a run after this many ticks (0 = unlimited)")
	fs.BoolVar(&o.summary, "summary", false, "Print a run summary after the last update")
	fs.StringVar(&o.logLevel, "log-level", "WARN", "Log level for stderr")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if (o.start == "") != (o.end == "") {
		return o, errors.New("-start and -end must be given together")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logging.ParseLevel(o.logLevel)})))

	ctrl := core.NewController(config.SimConfig{MaxTicks: o.maxTicks}, terrain.Synthetic{}, nil)
	if o.interval > 0 {
		interval := o.interval
		ctrl.SetTickSource(func() sim.TickSource { return sim.NewTimerTicks(interval) })
	} else {
		ctrl.SetTickSource(func() sim.TickSource { return sim.ManualTicks{} })
	}

	enc := json.NewEncoder(stdout)
	var writeErr error
	sink := core.SinkFunc(func(ev model.Event) {
		if writeErr == nil {
			writeErr = enc.Encode(ev)
		}
	})

	fly := func(cmd model.InitCommand) error {
		sum, err := ctrl.Run(ctx, cmd, sink)
		var inv *model.InvalidInputError
		if errors.As(err, &inv) {
			sink.Emit(model.NewErrorEvent(err))
			return writeErr
		}
		if err != nil && !errors.Is(err, core.ErrTickLimit) {
			return err
		}
		if o.summary && writeErr == nil {
			writeErr = enc.Encode(sum)
		}
		return writeErr
	}

	if o.start != "" {
		start, err := parsePoint(o.start)
		if err != nil {
			return fmt.Errorf("-start: %w", err)
		}
		end, err := parsePoint(o.end)
		if err != nil {
			return fmt.Errorf("-end: %w", err)
		}
		return fly(model.NewInitCommand(start, end))
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := model.DecodeInit([]byte(line))
		if err != nil {
			sink.Emit(model.NewErrorEvent(err))
			if writeErr != nil {
				return writeErr
			}
			continue
		}
		if err := fly(cmd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parsePoint reads "lat,lng".
func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("longitude: %w", err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
