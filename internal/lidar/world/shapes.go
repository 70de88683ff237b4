package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is a ray-intersectable surface. Intersect returns the nearest
// distance t in [tMin, tMax] along dir (unit) and the surface normal at the
// hit, oriented against the ray.
type Shape interface {
	Intersect(origin, dir r3.Vec, tMin, tMax float64) (t float64, normal r3.Vec, ok bool)
	Bounds() r3.Box
}

// largeExtent bounds infinite shapes for Bounds.
const largeExtent = 1e6

// Plane is an infinite two-sided plane.
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// NewPlane creates a plane through point with the given normal.
func NewPlane(point, normal r3.Vec) *Plane {
	return &Plane{Point: point, Normal: r3.Unit(normal)}
}

// Intersect tests the ray against the plane.
func (p *Plane) Intersect(origin, dir r3.Vec, tMin, tMax float64) (float64, r3.Vec, bool) {
	denom := r3.Dot(dir, p.Normal)
	if math.Abs(denom) < 1e-12 {
		return 0, r3.Vec{}, false
	}
	t := r3.Dot(r3.Sub(p.Point, origin), p.Normal) / denom
	if t < tMin || t > tMax {
		return 0, r3.Vec{}, false
	}
	return t, faceNormal(dir, p.Normal), true
}

// Bounds returns a thin slab for axis-aligned planes and a huge box otherwise.
func (p *Plane) Bounds() r3.Box {
	const eps = 0.001
	lo := r3.Vec{X: -largeExtent, Y: -largeExtent, Z: -largeExtent}
	hi := r3.Vec{X: largeExtent, Y: largeExtent, Z: largeExtent}
	switch {
	case math.Abs(p.Normal.X) > 0.999:
		lo.X, hi.X = p.Point.X-eps, p.Point.X+eps
	case math.Abs(p.Normal.Y) > 0.999:
		lo.Y, hi.Y = p.Point.Y-eps, p.Point.Y+eps
	case math.Abs(p.Normal.Z) > 0.999:
		lo.Z, hi.Z = p.Point.Z-eps, p.Point.Z+eps
	}
	return r3.Box{Min: lo, Max: hi}
}

// Sphere is a solid sphere.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// NewSphere creates a sphere.
func NewSphere(center r3.Vec, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Intersect tests the ray against the sphere, preferring the near root.
func (s *Sphere) Intersect(origin, dir r3.Vec, tMin, tMax float64) (float64, r3.Vec, bool) {
	oc := r3.Sub(origin, s.Center)
	a := r3.Dot(dir, dir)
	halfB := r3.Dot(oc, dir)
	c := r3.Dot(oc, oc) - s.Radius*s.Radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return 0, r3.Vec{}, false
	}
	sq := math.Sqrt(disc)
	t := (-halfB - sq) / a
	if t < tMin || t > tMax {
		t = (-halfB + sq) / a
		if t < tMin || t > tMax {
			return 0, r3.Vec{}, false
		}
	}
	p := r3.Add(origin, r3.Scale(t, dir))
	outward := r3.Scale(1/s.Radius, r3.Sub(p, s.Center))
	return t, faceNormal(dir, outward), true
}

// Bounds returns the sphere's bounding box.
func (s *Sphere) Bounds() r3.Box {
	r := r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return r3.Box{Min: r3.Sub(s.Center, r), Max: r3.Add(s.Center, r)}
}

// Box is an axis-aligned solid box.
type Box struct {
	r3.Box
}

// NewBox creates a box from its centre and full size.
func NewBox(center, size r3.Vec) *Box {
	half := r3.Scale(0.5, size)
	return &Box{Box: r3.Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}}
}

// Intersect uses the slab method. A ray starting inside the box hits the
// face it leaves through.
func (b *Box) Intersect(origin, dir r3.Vec, tMin, tMax float64) (float64, r3.Vec, bool) {
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	tNear, tFar := math.Inf(-1), math.Inf(1)
	nearAxis, farAxis := -1, -1
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, r3.Vec{}, false
			}
			continue
		}
		t0 := (lo[i] - o[i]) / d[i]
		t1 := (hi[i] - o[i]) / d[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear, nearAxis = t0, i
		}
		if t1 < tFar {
			tFar, farAxis = t1, i
		}
		if tNear > tFar {
			return 0, r3.Vec{}, false
		}
	}

	t, axis := tNear, nearAxis
	if t < tMin {
		t, axis = tFar, farAxis
	}
	if t < tMin || t > tMax || axis < 0 {
		return 0, r3.Vec{}, false
	}
	var n r3.Vec
	switch axis {
	case 0:
		n.X = 1
	case 1:
		n.Y = 1
	case 2:
		n.Z = 1
	}
	return t, faceNormal(dir, n), true
}

// Bounds returns the box itself.
func (b *Box) Bounds() r3.Box { return b.Box }

// faceNormal orients n against dir.
func faceNormal(dir, n r3.Vec) r3.Vec {
	if r3.Dot(dir, n) > 0 {
		return r3.Scale(-1, n)
	}
	return n
}
