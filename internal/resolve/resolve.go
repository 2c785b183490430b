// Package resolve is the nearby-facility resolution engine: expanding-radius
// search over the catalog, merge with the live status snapshot, occupancy,
// ranking and the result cap.
//
// Resolve is a pure function of its inputs. It holds no state between calls
// and is safe to call concurrently on a shared catalog.
package resolve

import (
	"cmp"
	"slices"

	"github.com/mohammed-shakir/zh-parking-finder/internal/catalog"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/feed"
	"github.com/mohammed-shakir/zh-parking-finder/internal/geo/h3index"
)

// RadiiKm is the radius ladder, ascending.
var RadiiKm = []int{1, 2, 3, 4, 5}

// DefaultLimit caps the number of facilities returned.
const DefaultLimit = 5

// UnlocatedPolicy decides what happens to facilities without a usable coordinate.
type UnlocatedPolicy int

const (
	// UnlocatedSkip leaves them out of every result.
	UnlocatedSkip UnlocatedPolicy = iota
	// UnlocatedAppend lists them after all distance-bearing matches, in
	// catalog order, whenever some radius matched. They never match a radius
	// themselves and never turn NoneFound into Matches.
	UnlocatedAppend
)

// ParseUnlocatedPolicy maps a config value to a policy; "" means skip.
func ParseUnlocatedPolicy(s string) (UnlocatedPolicy, bool) {
	switch s {
	case "", "skip":
		return UnlocatedSkip, true
	case "append":
		return UnlocatedAppend, true
	default:
		return UnlocatedSkip, false
	}
}

func (p UnlocatedPolicy) String() string {
	if p == UnlocatedAppend {
		return "append"
	}
	return "skip"
}

// Options tune one resolution; the zero value falls back to the defaults.
type Options struct {
	RadiiKm   []int
	Limit     int
	Unlocated UnlocatedPolicy
}

// DefaultOptions is the 1..5 km ladder, top 5, unlocated facilities skipped.
func DefaultOptions() Options {
	return Options{RadiiKm: RadiiKm, Limit: DefaultLimit, Unlocated: UnlocatedSkip}
}

// Kind tells whether some radius of the ladder matched.
type Kind int

const (
	NoneFound Kind = iota
	Matches
)

func (k Kind) String() string {
	if k == Matches {
		return "matches"
	}
	return "none_found"
}

// Outcome of one resolution. Results is ordered and capped; Matched is the
// number of entries before the cap.
type Outcome struct {
	Kind     Kind
	RadiusKm int
	Results  []model.ResolvedFacility
	Matched  int
}

type located struct {
	i int
	d float64
}

// Resolve finds the facilities around p within the smallest radius of the
// ladder that yields at least one match.
func Resolve(p model.LatLng, cat *catalog.Catalog, snap feed.Snapshot, opts Options) Outcome {
	if cat == nil || cat.Len() == 0 || !p.Valid() {
		return Outcome{Kind: NoneFound}
	}
	radii := slices.Sorted(slices.Values(opts.RadiiKm))
	if len(radii) == 0 {
		radii = RadiiKm
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	within := distancesWithin(p, cat, float64(slices.Max(radii))*1000)

	for _, km := range radii {
		limitM := float64(km) * 1000
		var hits []located
		for _, l := range within {
			if l.d <= limitM {
				hits = append(hits, l)
			}
		}
		if len(hits) == 0 {
			continue
		}
		return shape(km, hits, cat, snap, opts.Unlocated, limit)
	}
	return Outcome{Kind: NoneFound}
}

// distancesWithin returns, in catalog order, every located facility at most
// maxM away from p with its distance.
func distancesWithin(p model.LatLng, cat *catalog.Catalog, maxM float64) []located {
	fs := cat.Facilities()
	idx, ok := cat.Candidates(p, maxM)
	if !ok {
		idx = make([]int, len(fs))
		for i := range fs {
			idx[i] = i
		}
	}

	var out []located
	for _, i := range idx {
		loc, ok := fs[i].Location.Get()
		if !ok {
			continue
		}
		if d := h3index.DistanceM(p, loc); d <= maxM {
			out = append(out, located{i: i, d: d})
		}
	}
	return out
}

func shape(km int, hits []located, cat *catalog.Catalog, snap feed.Snapshot, pol UnlocatedPolicy, limit int) Outcome {
	// hits are in catalog order; stable sort keeps it for equal distances
	slices.SortStableFunc(hits, func(a, b located) int { return cmp.Compare(a.d, b.d) })

	fs := cat.Facilities()
	results := make([]model.ResolvedFacility, 0, len(hits))
	for _, h := range hits {
		results = append(results, merge(h.i, fs[h.i], model.Some(h.d), snap))
	}
	if pol == UnlocatedAppend {
		for i, f := range fs {
			if !f.Location.Present() {
				results = append(results, merge(i, f, model.None[float64](), snap))
			}
		}
	}

	matched := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return Outcome{Kind: Matches, RadiusKm: km, Results: results, Matched: matched}
}

func merge(i int, f model.FacilityRecord, dist model.Opt[float64], snap feed.Snapshot) model.ResolvedFacility {
	st := snap.Lookup(f.Name)
	return model.ResolvedFacility{
		FacilityRecord:   f,
		Label:            st.Label,
		Status:           st.Status,
		AvailableSpots:   st.AvailableSpots,
		DistanceMeters:   dist,
		OccupancyPercent: Occupancy(st.AvailableSpots, f.TotalCapacity),
		CatalogIndex:     i,
	}
}

// Occupancy is (1 - spots/capacity) * 100 when spots is known and capacity is
// known and positive. Values outside 0..100 from inconsistent data are kept.
func Occupancy(spots, capacity model.Opt[int]) model.Opt[float64] {
	s, ok := spots.Get()
	if !ok || s < 0 {
		return model.None[float64]()
	}
	c, ok := capacity.Get()
	if !ok || c <= 0 {
		return model.None[float64]()
	}
	return model.Some((1 - float64(s)/float64(c)) * 100)
}
