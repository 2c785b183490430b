package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
)

const sampleJSON = `[
  {"name": "Parkhaus Urania", "coordinates": [47.3745, 8.5395], "total_capacity": 607,
   "address": "Uraniastrasse 3 8001 Zürich", "link": "https://www.pls-zh.ch/parkhaus/urania",
   "normaltarif_1h": 4.5, "öffnungszeiten": "24h", "besonderes": null},
  {"name": "Parkhaus Jelmoli", "coordinates": {"lat": 47.3752, "lon": 8.5371}, "total_capacity": "222",
   "normaltarif_1h": "5.00"},
  {"name": "", "coordinates": [47.0, 8.0]},
  {"coordinates": [47.0, 8.0]},
  {"name": "Parkhaus Ohne Ort", "coordinates": null, "total_capacity": -3},
  {"name": "Parkhaus Kaputt", "coordinates": [147.0, 8.5], "total_capacity": 12.5}
]`

func TestDecode_FieldsAndOrder(t *testing.T) {
	c, err := Decode([]byte(sampleJSON), 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("Len=%d want 4", c.Len())
	}
	if c.Skipped() != 2 {
		t.Fatalf("Skipped=%d want 2", c.Skipped())
	}
	if c.Fingerprint() == 0 {
		t.Fatalf("expected non-zero fingerprint")
	}

	fs := c.Facilities()
	wantNames := []string{"Parkhaus Urania", "Parkhaus Jelmoli", "Parkhaus Ohne Ort", "Parkhaus Kaputt"}
	for i, n := range wantNames {
		if fs[i].Name != n {
			t.Fatalf("facility %d name=%q want %q", i, fs[i].Name, n)
		}
	}

	u := fs[0]
	if p, ok := u.Location.Get(); !ok || p != (model.LatLng{Lat: 47.3745, Lng: 8.5395}) {
		t.Fatalf("urania location=%v,%v", p, ok)
	}
	if n, ok := u.TotalCapacity.Get(); !ok || n != 607 {
		t.Fatalf("urania capacity=%v,%v", n, ok)
	}
	if s, _ := u.TariffHourly.Get(); s != "4.5" {
		t.Fatalf("numeric tariff=%q want 4.5", s)
	}
	if u.Remarks.Present() {
		t.Fatalf("null remarks must be absent")
	}

	j := fs[1]
	if p, ok := j.Location.Get(); !ok || p.Lng != 8.5371 {
		t.Fatalf("object coordinates not decoded: %v,%v", p, ok)
	}
	if n, ok := j.TotalCapacity.Get(); !ok || n != 222 {
		t.Fatalf("string capacity=%v,%v", n, ok)
	}
	if j.Address.Present() {
		t.Fatalf("missing address must be absent")
	}

	if fs[2].Location.Present() || fs[2].TotalCapacity.Present() {
		t.Fatalf("null coordinates / negative capacity must be absent: %+v", fs[2])
	}
	if fs[3].Location.Present() || fs[3].TotalCapacity.Present() {
		t.Fatalf("out of range lat / fractional capacity must be absent: %+v", fs[3])
	}
}

func TestDecode_DuplicateNamesKept(t *testing.T) {
	c, err := Decode([]byte(`[{"name":"A","coordinates":[47.37,8.54]},{"name":"A","coordinates":[47.38,8.55]}]`), 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len=%d want 2", c.Len())
	}
}

func TestDecode_NullCoordinatesAreAbsent(t *testing.T) {
	c, err := Decode([]byte(`[
	  {"name":"X","coordinates":[null,null]},
	  {"name":"Y","coordinates":[null,8.54]},
	  {"name":"Z","coordinates":[47.37,null]},
	  {"name":"W","coordinates":["47.37","8.54"]},
	  {"name":"V","coordinates":[0,0]}
	]`), 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fs := c.Facilities()
	for _, f := range fs[:4] {
		if p, ok := f.Location.Get(); ok {
			t.Fatalf("%s: location=%s want absent", f.Name, p)
		}
	}
	if p, ok := fs[4].Location.Get(); !ok || p != (model.LatLng{}) {
		t.Fatalf("explicit 0,0 must stay a location, got %v present=%v", p, ok)
	}
	if idx, ok := c.Candidates(model.LatLng{Lat: 0.001, Lng: 0.001}, 1000); !ok || len(idx) != 1 || idx[0] != 4 {
		t.Fatalf("candidates near 0,0=%v ok=%v want [4]", idx, ok)
	}
}

func TestDecode_CorruptIsUnavailable(t *testing.T) {
	for _, doc := range []string{"", "{", `{"name":"A"}`, "   "} {
		if _, err := Decode([]byte(doc), 8); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Decode(%q) err=%v want ErrUnavailable", doc, err)
		}
	}
}

func TestCandidates_IndexAndFallback(t *testing.T) {
	recs := []model.FacilityRecord{
		{Name: "near", Location: model.Some(model.LatLng{Lat: 47.37, Lng: 8.54})},
		{Name: "nowhere"},
		{Name: "far", Location: model.Some(model.LatLng{Lat: 46.95, Lng: 7.44})},
	}

	c := New(recs, 8)
	idx, ok := c.Candidates(model.LatLng{Lat: 47.371, Lng: 8.541}, 1000)
	if !ok {
		t.Fatalf("expected index to be available")
	}
	if len(idx) != 1 || idx[0] != 0 {
		t.Fatalf("candidates=%v want [0]", idx)
	}

	noIndex := New(recs, -1)
	if _, ok := noIndex.Candidates(model.LatLng{Lat: 47.37, Lng: 8.54}, 1000); ok {
		t.Fatalf("expected fallback without index")
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}
	if _, err := src.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v want ErrNotExist", err)
	}
}
