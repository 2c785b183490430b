// Package h3index buckets facility coordinates into H3 cells so a radius query
// only has to look at the facilities of the surrounding grid disk.
package h3index

import (
	"errors"
	"fmt"
	"math"
	"slices"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
)

const (
	DefaultRes = 8
	MaxRes     = 10

	// disks wider than this are slower than scanning a city catalog
	maxRings = 256
)

var ErrDiskTooWide = errors.New("h3index: radius needs too many rings")

type Index struct {
	res   int
	edgeM float64
	cells map[h3.Cell][]int
	size  int
}

func New(res int) (*Index, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	edge, err := h3.HexagonEdgeLengthAvgM(res)
	if err != nil {
		return nil, fmt.Errorf("h3 edge length: %w", err)
	}
	return &Index{res: res, edgeM: edge, cells: make(map[h3.Cell][]int)}, nil
}

func (ix *Index) Res() int { return ix.res }

// Len is the number of indexed positions.
func (ix *Index) Len() int { return ix.size }

// Add records position i (the caller's slice index) at p.
func (ix *Index) Add(i int, p model.LatLng) error {
	if !p.Valid() {
		return fmt.Errorf("invalid coordinate %s", p)
	}
	c, err := h3.LatLngToCell(toH3(p), ix.res)
	if err != nil {
		return fmt.Errorf("h3 cell for %s: %w", p, err)
	}
	ix.cells[c] = append(ix.cells[c], i)
	ix.size++
	return nil
}

// Candidates returns, ascending, every indexed position that may lie within
// radiusM of p. The result is a superset; callers still check exact distance.
func (ix *Index) Candidates(p model.LatLng, radiusM float64) ([]int, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid coordinate %s", p)
	}
	k := ix.rings(radiusM)
	if k > maxRings {
		return nil, ErrDiskTooWide
	}
	origin, err := h3.LatLngToCell(toH3(p), ix.res)
	if err != nil {
		return nil, fmt.Errorf("h3 cell for %s: %w", p, err)
	}
	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk k=%d: %w", k, err)
	}

	var out []int
	for _, c := range disk {
		out = append(out, ix.cells[c]...)
	}
	slices.Sort(out)
	return out, nil
}

// rings is a conservative disk size: neighbouring centers are at least
// 1.5 edges apart and cells vary in size across the globe, hence the slack.
func (ix *Index) rings(radiusM float64) int {
	if radiusM <= 0 {
		return 1
	}
	return int(math.Ceil(radiusM/(0.75*ix.edgeM))) + 3
}

// DistanceM is the great-circle distance between a and b in meters.
func DistanceM(a, b model.LatLng) float64 {
	return h3.GreatCircleDistanceM(toH3(a), toH3(b))
}

func validateRes(res int) error {
	if res < 0 || res > MaxRes {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..%d)", res, MaxRes)
	}
	return nil
}

func toH3(p model.LatLng) h3.LatLng {
	return h3.LatLng{Lat: p.Lat, Lng: p.Lng}
}
