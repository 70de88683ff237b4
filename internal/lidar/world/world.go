// Package world is a small ray-cast scene used to stand in for a host
// physics engine in demos and tests.
package world

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

// Epsilon is the minimum hit distance, so a ray starting on a surface does
// not hit that surface.
const Epsilon = 1e-6

// Collision layers used by DemoRoom.
const (
	LayerStructure = 0
	LayerProps     = 1
	LayerGlass     = 2
)

// Object is a named shape on one collision layer.
type Object struct {
	Name  string
	Shape Shape
	Layer int
}

// Stats counts queries against a World.
type Stats struct {
	Objects int
	Casts   uint64
	Hits    uint64
}

// World is an immutable-after-build list of objects. Raycast is safe for
// concurrent use; Add is not.
type World struct {
	objects []Object
	casts   atomic.Uint64
	hits    atomic.Uint64
}

// New returns an empty world.
func New() *World {
	return &World{}
}

// Add appends an object and returns the world for chaining.
func (w *World) Add(name string, shape Shape, layer int) *World {
	w.objects = append(w.objects, Object{Name: name, Shape: shape, Layer: layer})
	return w
}

// Objects returns the objects in insertion order.
func (w *World) Objects() []Object { return w.objects }

// Raycast returns the nearest hit within [Epsilon, maxDistance] on any
// object whose layer is in mask. It implements lidar.RayCaster.
func (w *World) Raycast(origin, dir r3.Vec, maxDistance float64, mask lidar.LayerMask) (lidar.Hit, bool) {
	w.casts.Add(1)
	dir = r3.Unit(dir)

	best := math.Inf(1)
	var bestNormal r3.Vec
	for _, o := range w.objects {
		if !mask.Intersects(lidar.Layer(o.Layer)) {
			continue
		}
		limit := math.Min(maxDistance, best)
		if t, n, ok := o.Shape.Intersect(origin, dir, Epsilon, limit); ok && t < best {
			best, bestNormal = t, n
		}
	}
	if math.IsInf(best, 1) {
		return lidar.Hit{}, false
	}
	w.hits.Add(1)
	return lidar.Hit{
		Point:    r3.Add(origin, r3.Scale(best, dir)),
		Normal:   bestNormal,
		Distance: best,
	}, true
}

// Bounds returns the union of every finite object's bounds. Infinite
// planes are skipped.
func (w *World) Bounds() r3.Box {
	var out r3.Box
	first := true
	for _, o := range w.objects {
		if _, ok := o.Shape.(*Plane); ok {
			continue
		}
		b := o.Shape.Bounds()
		if first {
			out, first = b, false
			continue
		}
		out = out.Union(b)
	}
	return out
}

// Stats returns the query counters.
func (w *World) Stats() Stats {
	return Stats{Objects: len(w.objects), Casts: w.casts.Load(), Hits: w.hits.Load()}
}

// Room dimensions for DemoRoom, in metres.
const (
	RoomHalfWidth = 5.0
	RoomHeight    = 3.0
)

// DemoRoom is a furnished 10 x 3 x 10 m room centred on the origin with its
// floor at y=0. Walls, floor and ceiling are on LayerStructure; furniture on
// LayerProps; a glass ball on LayerGlass.
func DemoRoom() *World {
	h := RoomHalfWidth
	w := New().
		Add("floor", NewPlane(r3.Vec{}, r3.Vec{Y: 1}), LayerStructure).
		Add("ceiling", NewPlane(r3.Vec{Y: RoomHeight}, r3.Vec{Y: -1}), LayerStructure).
		Add("wall-north", NewPlane(r3.Vec{Z: h}, r3.Vec{Z: -1}), LayerStructure).
		Add("wall-south", NewPlane(r3.Vec{Z: -h}, r3.Vec{Z: 1}), LayerStructure).
		Add("wall-east", NewPlane(r3.Vec{X: h}, r3.Vec{X: -1}), LayerStructure).
		Add("wall-west", NewPlane(r3.Vec{X: -h}, r3.Vec{X: 1}), LayerStructure).
		Add("table", NewBox(r3.Vec{X: 1.5, Y: 0.375, Z: 2}, r3.Vec{X: 1.6, Y: 0.75, Z: 0.9}), LayerProps).
		Add("crate", NewBox(r3.Vec{X: -2.5, Y: 0.5, Z: 3}, r3.Vec{X: 1, Y: 1, Z: 1}), LayerProps).
		Add("pillar", NewBox(r3.Vec{X: -1, Y: RoomHeight / 2, Z: -2.5}, r3.Vec{X: 0.4, Y: RoomHeight, Z: 0.4}), LayerProps).
		Add("ball", NewSphere(r3.Vec{X: 0.5, Y: 1.1, Z: 2}, 0.35), LayerGlass)
	return w
}
