package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarpaint/internal/config"
	"github.com/banshee-data/lidarpaint/internal/lidar"
	"github.com/banshee-data/lidarpaint/internal/lidar/monitor"
	"github.com/banshee-data/lidarpaint/internal/lidar/world"
)

func TestSimulate_PaintsTheRoom(t *testing.T) {
	pub := monitor.NewPublisher()
	res, err := simulate(context.Background(), simOptions{
		Config: config.MustLoadDefaultConfig().ScannerConfig(),
		Frames: 240,
		FPS:    60,
		Seed:   1,
	}, pub)
	require.NoError(t, err)

	assert.Equal(t, 240, res.Frames)
	assert.Equal(t, 1, res.Starts)
	assert.Greater(t, res.Pulses, uint64(20))
	assert.Positive(t, res.Last.Stats.Resident)
	assert.Equal(t, pub.RunID(), res.Last.RunID)

	// Every painted dot lies inside the room.
	const eps = 1e-6
	for _, d := range res.Last.Dots {
		assert.LessOrEqual(t, math.Abs(d.Position.X), world.RoomHalfWidth+eps, "%v", d.Position)
		assert.LessOrEqual(t, math.Abs(d.Position.Z), world.RoomHalfWidth+eps, "%v", d.Position)
		assert.True(t, d.Position.Y >= -eps && d.Position.Y <= world.RoomHeight+eps, "%v", d.Position)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	opts := simOptions{Config: lidar.DefaultConfig(), Frames: 120, FPS: 60, Seed: 7}
	a, err := simulate(context.Background(), opts, nil)
	require.NoError(t, err)
	b, err := simulate(context.Background(), opts, nil)
	require.NoError(t, err)

	require.Equal(t, len(a.Last.Dots), len(b.Last.Dots))
	for i := range a.Last.Dots {
		assert.Equal(t, a.Last.Dots[i].Position, b.Last.Dots[i].Position)
	}
	assert.Equal(t, a.Last.Stats.DotsAccepted, b.Last.Stats.DotsAccepted)
}

func TestSimulate_TriggerCycles(t *testing.T) {
	// 11s covers three trigger holds with the default 4s on / 1s off sweep.
	res, err := simulate(context.Background(), simOptions{Config: lidar.DefaultConfig(), Frames: 660, FPS: 60, Seed: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Starts)
}

func TestSimulate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := simulate(ctx, simOptions{Config: lidar.DefaultConfig(), Frames: 10, FPS: 0}, nil)
	assert.Error(t, err)

	_, err = simulate(ctx, simOptions{Config: lidar.DefaultConfig(), Frames: 0, FPS: 60}, nil)
	assert.Error(t, err)

	bad := lidar.DefaultConfig()
	bad.RayCount = 0
	_, err = simulate(ctx, simOptions{Config: bad, Frames: 10, FPS: 60}, nil)
	assert.ErrorIs(t, err, lidar.ErrInvalidConfig)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := simulate(ctx, simOptions{Config: lidar.DefaultConfig(), Frames: 100, FPS: 60}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Frames)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, lidar.DefaultConfig().MaxPersistentDots, cfg.MaxPersistentDots)

	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_persistent_dots": 250, "ray_count": 4}`), 0644))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.MaxPersistentDots)
	assert.Equal(t, 4, cfg.RayCount)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
