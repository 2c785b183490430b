// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Opt is an explicitly tagged optional value; the zero value is absent.
type Opt[T any] struct {
	v  T
	ok bool
}

func Some[T any](v T) Opt[T] { return Opt[T]{v: v, ok: true} }

func None[T any]() Opt[T] { return Opt[T]{} }

func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

func (o Opt[T]) Present() bool { return o.ok }

// Or returns the value or def when absent.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.v
	}
	return def
}

type LatLng struct {
	Lat float64
	Lng float64
}

func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// String in "lat,lng" form, as used in map links
func (p LatLng) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}

// FacilityRecord is one static catalog entry. Name is the join key against the live feed.
type FacilityRecord struct {
	Name          string
	Location      Opt[LatLng]
	TotalCapacity Opt[int]
	TariffHourly  Opt[string]
	OpeningHours  Opt[string]
	Remarks       Opt[string]
	Address       Opt[string]
	InfoLink      Opt[string]
}

type Status int

const (
	StatusUnknown Status = iota
	StatusOpen
	StatusClosed
)

const UnknownLabel = "unknown"

// ParseStatus maps a feed label to a Status; anything unrecognized is StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "offen":
		return StatusOpen
	case "closed", "geschlossen":
		return StatusClosed
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return UnknownLabel
	}
}

// StatusRecord is the live state of one facility as published by the feed.
type StatusRecord struct {
	Label          string
	Status         Status
	AvailableSpots Opt[int]
}

// UnknownStatus is used for facilities the feed does not mention.
func UnknownStatus() StatusRecord {
	return StatusRecord{Label: UnknownLabel, Status: StatusUnknown}
}

// ResolvedFacility is a facility enriched for one query. It is never cached.
type ResolvedFacility struct {
	FacilityRecord

	Label            string
	Status           Status
	AvailableSpots   Opt[int]
	DistanceMeters   Opt[float64]
	OccupancyPercent Opt[float64]

	// position in the catalog, used as the stable tiebreak
	CatalogIndex int
}
