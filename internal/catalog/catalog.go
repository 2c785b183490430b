// Package catalog holds the static facility catalog: decoding, the immutable
// snapshot handed to the resolver, and the sources it is loaded from.
package catalog

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/geo/h3index"
)

// ErrUnavailable marks a catalog that cannot be read or parsed.
var ErrUnavailable = errors.New("catalog unavailable")

// Catalog is an immutable snapshot of the facility records in source order.
// It is shared read-only between concurrent queries.
type Catalog struct {
	facilities  []model.FacilityRecord
	index       *h3index.Index
	fingerprint uint64
	skipped     int
}

// New builds a snapshot over records. res is the H3 resolution of the
// candidate index; a negative res disables the index.
func New(records []model.FacilityRecord, res int) *Catalog {
	c := &Catalog{facilities: records}
	if res >= 0 {
		c.index = buildIndex(records, res)
	}
	return c
}

// Decode parses the JSON catalog format. Records without a name are skipped.
func Decode(data []byte, res int) (*Catalog, error) {
	records, skipped, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c := New(records, res)
	c.skipped = skipped
	c.fingerprint = xxhash.Sum64(data)
	return c, nil
}

func buildIndex(records []model.FacilityRecord, res int) *h3index.Index {
	ix, err := h3index.New(res)
	if err != nil {
		return nil
	}
	for i, f := range records {
		p, ok := f.Location.Get()
		if !ok {
			continue
		}
		if err := ix.Add(i, p); err != nil {
			return nil
		}
	}
	return ix
}

// Facilities returns the records in catalog order. Callers must not modify it.
func (c *Catalog) Facilities() []model.FacilityRecord { return c.facilities }

func (c *Catalog) Len() int { return len(c.facilities) }

// Skipped is the number of source records dropped at decode time.
func (c *Catalog) Skipped() int { return c.skipped }

// Fingerprint is the xxhash of the raw source bytes, zero for catalogs built with New.
func (c *Catalog) Fingerprint() uint64 { return c.fingerprint }

// Candidates returns catalog positions that may lie within radiusM of p.
// ok is false when no index is available and the caller has to scan.
func (c *Catalog) Candidates(p model.LatLng, radiusM float64) (idx []int, ok bool) {
	if c.index == nil {
		return nil, false
	}
	idx, err := c.index.Candidates(p, radiusM)
	if err != nil {
		return nil, false
	}
	return idx, true
}
