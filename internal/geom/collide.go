package geom

import (
	"math"
	"math/rand/v2"
)

// DefaultMargin is the gap kept between node rims while dragging.
const DefaultMargin = 20.0

const maxPushPasses = 16

// Body is a round obstacle on the canvas.
type Body struct {
	ID     int
	Center Point
	R      float64
}

func nearestConflict(p Point, movingID int, rMoving float64, bodies []Body, margin float64) (Body, bool) {
	var (
		nearest Body
		best    = math.Inf(1)
		found   bool
	)
	for _, b := range bodies {
		if b.ID == movingID {
			continue
		}
		need := rMoving + b.R + margin
		d := p.Dist(b.Center)
		if d < need-1e-9 && d < best {
			nearest, best, found = b, d, true
		}
	}
	return nearest, found
}

// FindNonOverlappingPosition keeps a dragged node of radius rMoving clear of
// every other body. When target is too close to a body the point is pushed
// radially away from the nearest offender to exactly rMoving+r+margin (a
// random direction is used if the centers coincide). Pushing can create new
// conflicts, so the push repeats; if it does not settle, an outward ring
// search around target finds the closest free spot.
//
// The body whose ID equals movingID is ignored. rnd may be nil.
func FindNonOverlappingPosition(target Point, movingID int, rMoving float64, bodies []Body, margin float64, rnd *rand.Rand) Point {
	p := target
	for range maxPushPasses {
		b, conflict := nearestConflict(p, movingID, rMoving, bodies, margin)
		if !conflict {
			return p
		}
		need := rMoving + b.R + margin
		u := p.Sub(b.Center).Unit()
		if u == (Point{}) {
			u = Point{X: 1}.Rotate(randFloat(rnd) * 2 * math.Pi)
		}
		p = b.Center.Add(u.Scale(need))
	}
	if _, conflict := nearestConflict(p, movingID, rMoving, bodies, margin); !conflict {
		return p
	}
	return ringSearch(target, movingID, rMoving, bodies, margin)
}

func ringSearch(target Point, movingID int, rMoving float64, bodies []Body, margin float64) Point {
	step := math.Max(rMoving, 1)
	limit := step
	for _, b := range bodies {
		if b.ID == movingID {
			continue
		}
		limit = math.Max(limit, target.Dist(b.Center)+rMoving+b.R+margin+step)
	}
	for radius := step; ; radius += step {
		n := max(8, int(math.Ceil(2*math.Pi*radius/step)))
		for k := range n {
			a := 2 * math.Pi * float64(k) / float64(n)
			p := target.Add(Point{X: radius}.Rotate(a))
			if _, conflict := nearestConflict(p, movingID, rMoving, bodies, margin); !conflict {
				return p
			}
		}
		if radius > limit {
			// Past every body: the point straight out is always free.
			return target.Add(Point{X: radius + step})
		}
	}
}

func randFloat(rnd *rand.Rand) float64 {
	if rnd == nil {
		return rand.Float64()
	}
	return rnd.Float64()
}
