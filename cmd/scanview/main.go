// Command scanview is an interactive terminal scanner over the demo room.
//
// Keys: space toggles the trigger, arrows turn, w/s walk, a/d strafe,
// +/- zoom, e arms or disarms the scanner, c clears the paint, q or Esc quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/config"
	"github.com/banshee-data/lidarpaint/internal/lidar"
	"github.com/banshee-data/lidarpaint/internal/lidar/monitor"
	"github.com/banshee-data/lidarpaint/internal/lidar/operator"
	"github.com/banshee-data/lidarpaint/internal/lidar/visualiser"
	"github.com/banshee-data/lidarpaint/internal/lidar/world"
	"github.com/banshee-data/lidarpaint/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to scanner tuning JSON (defaults are used when empty)")
	fps         = flag.Int("fps", 30, "Frames per second")
	logFile     = flag.String("log", "", "Write scanner logs to this file (the terminal is in use)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const (
	turnStep = 5.0  // degrees per key press
	moveStep = 0.25 // metres per key press
)

type app struct {
	screen  tcell.Screen
	view    *visualiser.TerminalView
	scanner *lidar.Scanner
	op      *operator.Manual
	pub     *monitor.Publisher
}

// handleKey applies one key press and reports whether the app should quit.
func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		a.op.Turn(-turnStep, 0)
	case tcell.KeyRight:
		a.op.Turn(turnStep, 0)
	case tcell.KeyUp:
		a.op.Turn(0, turnStep)
	case tcell.KeyDown:
		a.op.Turn(0, -turnStep)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			a.op.ToggleTrigger()
		case 'w':
			a.op.Move(moveStep, 0)
		case 's':
			a.op.Move(-moveStep, 0)
		case 'a':
			a.op.Move(0, -moveStep)
		case 'd':
			a.op.Move(0, moveStep)
		case 'c':
			a.scanner.Clear()
		case 'e':
			a.scanner.SetEnabled(!a.scanner.Enabled())
		case '+', '=':
			a.view.Zoom(1.25)
		case '-':
			a.view.Zoom(0.8)
		}
	}
	return false
}

// frame ticks the scanner once and redraws.
func (a *app) frame(now time.Time) {
	a.scanner.Tick(a.op.Scanning())
	snap := a.pub.Publish(a.scanner, now)
	a.view.Draw(snap, a.scanner.Pose(), a.status(snap))
}

func (a *app) status(snap monitor.Snapshot) string {
	st := snap.Stats
	yaw, pitch := a.op.Angles()
	trigger := "released"
	if a.op.Scanning() {
		trigger = "HELD"
	}
	if !a.scanner.Enabled() {
		trigger = "disarmed"
	}
	return fmt.Sprintf(" %s | %s | dots %d/%d | pulses %d | hue %.2f | yaw %.0f pitch %.0f | space scan, arrows turn, wasd move, c clear, q quit",
		trigger, st.State, st.Resident, st.Capacity, st.Pulses, st.Hue, yaw, pitch)
}

// runOptions carries the flag values so tests can drive run directly.
type runOptions struct {
	ConfigFile string
	LogFile    string
	FPS        int
}

// run builds the scanner and drives the UI until the user quits. openScreen
// must return an initialised screen; run finalises it.
func run(opts runOptions, openScreen func() (tcell.Screen, error)) error {
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}

	var logOut io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log.SetOutput(logOut)
	lidar.SetLogWriters(lidar.LogWriters{Ops: logOut, Diag: logOut})
	monitor.SetLogWriters(logOut, nil)
	log.Printf("%s starting", version.String())

	tuning := config.EmptyScannerTuning()
	if opts.ConfigFile != "" {
		var err error
		if tuning, err = config.LoadScannerTuning(opts.ConfigFile); err != nil {
			return fmt.Errorf("failed to load scanner config: %w", err)
		}
	}

	room := world.DemoRoom()
	op := operator.NewManual(r3.Vec{Y: 1.5})
	const margin = 0.3
	op.Confine(r3.Box{
		Min: r3.Vec{X: -world.RoomHalfWidth + margin, Y: 1.5, Z: -world.RoomHalfWidth + margin},
		Max: r3.Vec{X: world.RoomHalfWidth - margin, Y: 1.5, Z: world.RoomHalfWidth - margin},
	})

	scanner, err := lidar.NewScanner(tuning.ScannerConfig(), op, room)
	if err != nil {
		return err
	}
	defer scanner.Close()

	screen, err := openScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()

	a := &app{
		screen:  screen,
		view:    visualiser.NewTerminalView(screen),
		scanner: scanner,
		op:      op,
		pub:     monitor.NewPublisher(),
	}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(opts.FPS))
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if a.handleKey(ev) {
					log.Printf("quit after %d pulses", scanner.Stats().Pulses)
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case now := <-ticker.C:
			a.frame(now)
		}
	}
}

func openTerminal() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	return screen, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(runOptions{ConfigFile: *configFile, LogFile: *logFile, FPS: *fps}, openTerminal); err != nil {
		fmt.Fprintf(os.Stderr, "scanview: %v\n", err)
		os.Exit(1)
	}
}
