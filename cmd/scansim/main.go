// Command scansim runs the paint scanner headless over the demo room with a
// scripted operator and reports what it painted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/lidarpaint/internal/config"
	"github.com/banshee-data/lidarpaint/internal/lidar"
	"github.com/banshee-data/lidarpaint/internal/lidar/monitor"
	"github.com/banshee-data/lidarpaint/internal/lidar/operator"
	"github.com/banshee-data/lidarpaint/internal/lidar/world"
	"github.com/banshee-data/lidarpaint/internal/monitoring"
	"github.com/banshee-data/lidarpaint/internal/timeutil"
	"github.com/banshee-data/lidarpaint/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to scanner tuning JSON (defaults are used when empty)")
	frames      = flag.Int("frames", 600, "Frames to simulate (0 runs until interrupted with -realtime)")
	fps         = flag.Int("fps", 60, "Frames per second")
	seed        = flag.Int64("seed", 1, "Random seed for dot sampling")
	pngOut      = flag.String("png", "", "Write a top-down PNG of the final frame to this path")
	debugListen = flag.String("debug-listen", "", "Serve /debug/scan pages on this address (e.g. localhost:8082)")
	realtime    = flag.Bool("realtime", false, "Tick on the wall clock instead of a fixed simulated timestep")
	logDiag     = flag.Bool("log-diag", false, "Enable per-pulse diagnostic logging")
	logTrace    = flag.Bool("log-trace", false, "Enable per-frame trace logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var logf = monitoring.Tagged("scansim")

// simOptions carries everything a run needs so tests can drive it without flags.
type simOptions struct {
	Config   lidar.Config
	Frames   int
	FPS      int
	Seed     int64
	Realtime bool
}

// simResult is the run summary.
type simResult struct {
	Frames   int
	Pulses   uint64
	Starts   int
	Last     monitor.Snapshot
	Duration time.Duration
}

func simulate(ctx context.Context, opts simOptions, pub *monitor.Publisher) (simResult, error) {
	if opts.FPS <= 0 {
		return simResult{}, fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	if opts.Frames <= 0 && !opts.Realtime {
		return simResult{}, errors.New("frames must be positive without -realtime")
	}
	step := time.Second / time.Duration(opts.FPS)

	var clock timeutil.Clock
	mock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	clock = mock
	if opts.Realtime {
		clock = timeutil.RealClock{}
	}

	room := world.DemoRoom()
	op := operator.NewSweep(clock)
	scanner, err := lidar.NewScanner(opts.Config, op, room, lidar.WithClock(clock), lidar.WithSeed(opts.Seed))
	if err != nil {
		return simResult{}, err
	}
	defer scanner.Close()

	var ticker timeutil.Ticker
	if opts.Realtime {
		ticker = clock.NewTicker(step)
		defer ticker.Stop()
	}

	res := simResult{}
	start := clock.Now()
	for opts.Frames <= 0 || res.Frames < opts.Frames {
		if opts.Realtime {
			select {
			case <-ctx.Done():
				return finish(res, scanner, pub, clock, start), nil
			case <-ticker.C():
			}
		} else {
			if err := ctx.Err(); err != nil {
				return finish(res, scanner, pub, clock, start), err
			}
			mock.Advance(step)
		}

		tick := scanner.Tick(op.Scanning())
		res.Frames++
		if tick.Started {
			res.Starts++
		}
		if tick.Pulsed && pub != nil {
			pub.Publish(scanner, clock.Now())
		}
	}
	return finish(res, scanner, pub, clock, start), nil
}

func finish(res simResult, s *lidar.Scanner, pub *monitor.Publisher, clock timeutil.Clock, start time.Time) simResult {
	if pub == nil {
		pub = monitor.NewPublisher()
	}
	res.Last = pub.Publish(s, clock.Now())
	res.Pulses = res.Last.Stats.Pulses
	res.Duration = clock.Since(start)
	return res
}

func loadConfig(path string) (lidar.Config, error) {
	tuning := config.EmptyScannerTuning()
	if path != "" {
		var err error
		tuning, err = config.LoadScannerTuning(path)
		if err != nil {
			return lidar.Config{}, err
		}
	}
	return tuning.ScannerConfig(), nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	lw := lidar.LogWriters{Ops: os.Stderr}
	if *logDiag {
		lw.Diag = os.Stderr
	}
	if *logTrace {
		lw.Trace = os.Stderr
	}
	lidar.SetLogWriters(lw)
	monitor.SetLogWriters(os.Stderr, lw.Diag)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load scanner config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub := monitor.NewPublisher()
	logf("%s", version.String())
	logf("run %s starting: frames=%d fps=%d seed=%d realtime=%v", pub.RunID(), *frames, *fps, *seed, *realtime)

	var srv *http.Server
	if *debugListen != "" {
		mux := http.NewServeMux()
		monitor.AttachDebugRoutes(mux, pub)
		srv = &http.Server{Addr: *debugListen, Handler: mux}
		go func() {
			logf("debug pages on http://%s/debug/", *debugListen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logf("debug server error: %v", err)
			}
		}()
	}

	res, err := simulate(ctx, simOptions{
		Config:   cfg,
		Frames:   *frames,
		FPS:      *fps,
		Seed:     *seed,
		Realtime: *realtime,
	}, pub)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Simulation failed: %v", err)
	}

	st := res.Last.Stats
	logf("run %s done: frames=%d simulated=%v pulses=%d scans=%d", pub.RunID(), res.Frames, res.Duration, res.Pulses, res.Starts)
	logf("dots resident=%d/%d accepted=%d rejected=%d evicted=%d rays cast=%d missed=%d",
		st.Resident, st.Capacity, st.DotsAccepted, st.DotsRejected, st.DotsEvicted, st.RaysCast, st.RaysMissed)

	if *pngOut != "" {
		if err := monitor.NewCloudPlotter().SavePNG(*pngOut, res.Last); err != nil {
			log.Fatalf("Failed to write plot: %v", err)
		}
		logf("wrote %s", *pngOut)
	}

	if srv != nil {
		if ctx.Err() == nil {
			logf("simulation finished; serving debug pages until interrupted")
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logf("debug server shutdown: %v", err)
		}
	}
}
