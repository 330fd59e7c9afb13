// Package cluster groups nearby points into clusters in screen space.
//
// Points are projected to Web Mercator pixels at the evaluated zoom and
// bucketed into a grid whose cells are Radius pixels wide. Seeds are taken
// in input order; a seed absorbs every unassigned point within Radius of it
// and becomes a cluster when that gives at least MinPoints members.
package cluster

import (
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

const (
	DefaultRadius    = 60.0
	DefaultMaxZoom   = 16.0
	DefaultMinZoom   = 0.0
	DefaultMinPoints = 2
	DefaultExtent    = 256.0

	maxLatitude = 85.05112878
)

// Options tunes clustering. Zero fields take the defaults.
type Options struct {
	Radius    float64 // pixels
	MaxZoom   float64
	MinZoom   float64
	MinPoints int
	Extent    float64 // tile size in pixels
}

func (o Options) withDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = DefaultMaxZoom
	}
	if o.MinZoom < 0 {
		o.MinZoom = DefaultMinZoom
	}
	if o.MinPoints < 2 {
		o.MinPoints = DefaultMinPoints
	}
	if o.Extent <= 0 {
		o.Extent = DefaultExtent
	}
	return o
}

// Point is an input location.
type Point struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Cluster aggregates points. Lat/Lng is the mean of its members.
type Cluster struct {
	ID         string   `json:"id"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	PointCount int      `json:"point_count"`
	PointIDs   []string `json:"point_ids"`
}

// Item is exactly one of a standalone Point or a Cluster.
type Item struct {
	Point   *Point   `json:"point,omitempty"`
	Cluster *Cluster `json:"cluster,omitempty"`
}

// IsCluster reports whether the item is an aggregate.
func (it Item) IsCluster() bool { return it.Cluster != nil }

type cell struct{ x, y int }

// Compute clusters points at zoom. Every input point appears in exactly one
// returned item. Above MaxZoom nothing is merged.
func Compute(points []Point, opts Options, zoom float64) []Item {
	o := opts.withDefaults()
	z := math.Max(zoom, o.MinZoom)

	items := make([]Item, 0, len(points))
	if z > o.MaxZoom {
		for i := range points {
			p := points[i]
			items = append(items, Item{Point: &p})
		}
		return items
	}

	scale := o.Extent * math.Pow(2, z)
	px := make([]orb.Point, len(points))
	grid := make(map[cell][]int)
	for i, p := range points {
		px[i] = pixel(p, scale)
		c := cellOf(px[i], o.Radius)
		grid[c] = append(grid[c], i)
	}

	assigned := make([]bool, len(points))
	zoomLabel := int(math.Floor(z))
	for i := range points {
		if assigned[i] {
			continue
		}

		members := neighbours(i, px, grid, assigned, o.Radius)
		if len(members) < o.MinPoints {
			assigned[i] = true
			p := points[i]
			items = append(items, Item{Point: &p})
			continue
		}

		c := &Cluster{
			ID:         fmt.Sprintf("c%d-%s", zoomLabel, points[i].ID),
			PointCount: len(members),
			PointIDs:   make([]string, 0, len(members)),
		}
		for _, j := range members {
			assigned[j] = true
			c.Lat += points[j].Lat
			c.Lng += points[j].Lng
			c.PointIDs = append(c.PointIDs, points[j].ID)
		}
		c.Lat /= float64(len(members))
		c.Lng /= float64(len(members))
		items = append(items, Item{Cluster: c})
	}
	return items
}

// neighbours returns seed and every unassigned point within radius of it,
// in input order.
func neighbours(seed int, px []orb.Point, grid map[cell][]int, assigned []bool, radius float64) []int {
	home := cellOf(px[seed], radius)
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, j := range grid[cell{home.x + dx, home.y + dy}] {
				if assigned[j] {
					continue
				}
				if j == seed || planar.Distance(px[seed], px[j]) <= radius {
					out = append(out, j)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

func pixel(p Point, scale float64) orb.Point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat))
	m := project.WGS84.ToMercator(orb.Point{p.Lng, lat})
	half := math.Pi * orb.EarthRadius
	return orb.Point{
		(m[0] + half) / (2 * half) * scale,
		(half - m[1]) / (2 * half) * scale,
	}
}

func cellOf(p orb.Point, size float64) cell {
	return cell{int(math.Floor(p[0] / size)), int(math.Floor(p[1] / size))}
}
