package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
)

// rawRecord mirrors one entry of parking_static_data.json.
type rawRecord struct {
	Name          text            `json:"name"`
	Coordinates   json.RawMessage `json:"coordinates"`
	TotalCapacity json.RawMessage `json:"total_capacity"`
	Address       text            `json:"address"`
	Link          text            `json:"link"`
	Remarks       text            `json:"besonderes"`
	TariffHourly  text            `json:"normaltarif_1h"`
	OpeningHours  text            `json:"öffnungszeiten"`
}

// text accepts a JSON string or number; null, empty and anything else are absent.
type text struct {
	model.Opt[string]
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		if s = strings.TrimSpace(s); s != "" {
			t.Opt = model.Some(s)
		}
		return nil
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		t.Opt = model.Some(string(b))
		return nil
	default:
		return nil
	}
}

func decodeRecords(data []byte) ([]model.FacilityRecord, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, errors.New("empty catalog document")
	}
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode catalog json: %w", err)
	}

	out := make([]model.FacilityRecord, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		name, ok := r.Name.Get()
		if !ok {
			skipped++
			continue
		}
		out = append(out, model.FacilityRecord{
			Name:          name,
			Location:      parseCoordinates(r.Coordinates),
			TotalCapacity: parseCapacity(r.TotalCapacity),
			TariffHourly:  r.TariffHourly.Opt,
			OpeningHours:  r.OpeningHours.Opt,
			Remarks:       r.Remarks.Opt,
			Address:       r.Address.Opt,
			InfoLink:      r.Link.Opt,
		})
	}
	return out, skipped, nil
}

// coordinates are stored as [lat, lng]; {"lat":..,"lng"|"lon":..} is accepted too
func parseCoordinates(b json.RawMessage) model.Opt[model.LatLng] {
	if len(b) == 0 {
		return model.None[model.LatLng]()
	}

	var p model.LatLng
	// pointers so a null element stays distinguishable from 0
	var pair []*float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 || pair[0] == nil || pair[1] == nil {
			return model.None[model.LatLng]()
		}
		p = model.LatLng{Lat: *pair[0], Lng: *pair[1]}
	} else {
		var obj struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
			Lon *float64 `json:"lon"`
		}
		if err := json.Unmarshal(b, &obj); err != nil || obj.Lat == nil {
			return model.None[model.LatLng]()
		}
		lng := obj.Lng
		if lng == nil {
			lng = obj.Lon
		}
		if lng == nil {
			return model.None[model.LatLng]()
		}
		p = model.LatLng{Lat: *obj.Lat, Lng: *lng}
	}

	if !p.Valid() {
		return model.None[model.LatLng]()
	}
	return model.Some(p)
}

func parseCapacity(b json.RawMessage) model.Opt[int] {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return model.None[int]()
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return model.None[int]()
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(b)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return model.None[int]()
	}
	return model.Some(int(f))
}
