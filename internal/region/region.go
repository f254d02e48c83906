package region

import (
	"time"

	"github.com/osse101/chunkward/internal/domain"
)

// Point is a block coordinate without a world
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Region is an axis-aligned PvP area. Min and Max are inclusive block corners with
// Min <= Max on every axis.
type Region struct {
	Name      string          `json:"name"`
	World     string          `json:"world"`
	Min       Point           `json:"min"`
	Max       Point           `json:"max"`
	CreatedBy domain.Identity `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	// Seq orders regions by creation; the highest Seq wins where regions overlap.
	Seq int64 `json:"seq"`
}

// Bounds normalizes two corners so the result holds min <= max per axis whatever the click order
func Bounds(a, b domain.BlockPos) (Point, Point) {
	return Point{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Point{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}

// Contains is inclusive on every face
func (r Region) Contains(p domain.BlockPos) bool {
	return p.World == r.World &&
		p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y &&
		p.Z >= r.Min.Z && p.Z <= r.Max.Z
}

// Area is the number of block columns covered
func (r Region) Area() int64 {
	return int64(r.Max.X-r.Min.X+1) * int64(r.Max.Z-r.Min.Z+1)
}

// Volume is the number of blocks covered
func (r Region) Volume() int64 {
	return r.Area() * int64(r.Max.Y-r.Min.Y+1)
}

// Selection is an in-progress two-click region selection
type Selection struct {
	Owner  domain.Identity  `json:"owner"`
	First  domain.BlockPos  `json:"first"`
	Second *domain.BlockPos `json:"second,omitempty"`
}

// Complete reports whether both corners are set
func (s Selection) Complete() bool {
	return s.Second != nil
}

// Bounds returns the normalized corners; ok is false until both corners are set
func (s Selection) Bounds() (lo, hi Point, ok bool) {
	if s.Second == nil {
		return Point{}, Point{}, false
	}
	lo, hi = Bounds(s.First, *s.Second)
	return lo, hi, true
}
