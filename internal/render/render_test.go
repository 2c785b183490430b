package render

import (
	"strings"
	"testing"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/resolve"
)

func full() model.ResolvedFacility {
	return model.ResolvedFacility{
		FacilityRecord: model.FacilityRecord{
			Name:          "Parkhaus Urania",
			Location:      model.Some(model.LatLng{Lat: 47.3745, Lng: 8.5395}),
			TotalCapacity: model.Some(607),
			TariffHourly:  model.Some("4.50"),
			OpeningHours:  model.Some("24h"),
			Address:       model.Some("Uraniastrasse 3 8001 Zürich"),
			InfoLink:      model.Some("https://www.pls-zh.ch/parkhaus/urania"),
		},
		Label:            "open",
		Status:           model.StatusOpen,
		AvailableSpots:   model.Some(120),
		DistanceMeters:   model.Some(134.9),
		OccupancyPercent: model.Some(80.23064250411862),
	}
}

func TestNewBlock_AllFields(t *testing.T) {
	b := NewBlock(full())
	want := Block{
		Name:      "Parkhaus Urania",
		Address:   "Uraniastrasse 3, 8001 Zürich",
		NavLink:   "https://www.google.com/maps/search/?api=1&query=47.3745,8.5395",
		Indicator: "🟢",
		Status:    "open",
		Distance:  "134 meters",
		Spots:     "120 / 607",
		Occupancy: "80.23%",
		Tariff:    "CHF 4.50",
		Hours:     "24h",
		InfoLink:  "https://www.pls-zh.ch/parkhaus/urania",
	}
	if b != want {
		t.Fatalf("got  %+v\nwant %+v", b, want)
	}
}

func TestNewBlock_AbsentFieldsAreUnavailable(t *testing.T) {
	b := NewBlock(model.ResolvedFacility{
		FacilityRecord: model.FacilityRecord{Name: "Bare"},
		Label:          model.UnknownLabel,
	})
	for field, v := range map[string]string{
		"address": b.Address, "nav": b.NavLink, "distance": b.Distance,
		"occupancy": b.Occupancy, "tariff": b.Tariff, "hours": b.Hours, "info": b.InfoLink,
	} {
		if v != Unavailable {
			t.Fatalf("%s=%q want %q", field, v, Unavailable)
		}
	}
	if b.Spots != "unavailable / unavailable" {
		t.Fatalf("spots=%q", b.Spots)
	}
	if b.Indicator != "⚪" || b.Status != model.UnknownLabel {
		t.Fatalf("indicator=%q status=%q", b.Indicator, b.Status)
	}
}

func TestBlockText_UniformShape(t *testing.T) {
	a := NewBlock(full()).Text()
	b := NewBlock(model.ResolvedFacility{FacilityRecord: model.FacilityRecord{Name: "Bare"}}).Text()

	if strings.Count(a, "\n") != strings.Count(b, "\n") {
		t.Fatalf("blocks differ in shape:\n%s\n---\n%s", a, b)
	}
	if !strings.Contains(a, "[More Info](https://www.pls-zh.ch/parkhaus/urania)") {
		t.Fatalf("info link missing:\n%s", a)
	}
	if !strings.Contains(b, "🧭 *Navigation:* unavailable") {
		t.Fatalf("navigation placeholder missing:\n%s", b)
	}
}

func TestReply_MatchesAndNoneFound(t *testing.T) {
	second := full()
	second.Name = "Parkhaus Jelmoli"
	out := resolve.Outcome{Kind: resolve.Matches, RadiusKm: 2, Results: []model.ResolvedFacility{full(), second}}

	r := Reply(out)
	if !strings.HasPrefix(r, "✅ *Found parking spots within 2 km radius:*\n\n*Parkhaus Urania*") {
		t.Fatalf("unexpected header:\n%s", r)
	}
	if strings.Index(r, "Parkhaus Urania") > strings.Index(r, "Parkhaus Jelmoli") {
		t.Fatalf("order not preserved")
	}
	if strings.Count(r, "\n\n*") != 2 {
		t.Fatalf("blocks must be separated by blank lines:\n%s", r)
	}

	none := Reply(resolve.Outcome{Kind: resolve.NoneFound})
	if !strings.Contains(none, "within 5 km radius") || !strings.Contains(none, "send your location again") {
		t.Fatalf("none found reply=%q", none)
	}
}

func TestFormatAddress(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: "Uraniastrasse 3 8001 Zürich", want: "Uraniastrasse 3, 8001 Zürich"},
		{in: "Seidengasse 1, 8001 Zürich", want: "Seidengasse 1, 8001 Zürich"},
		{in: "Badenerstrasse 420 8004 Zürich", want: "Badenerstrasse 420, 8004 Zürich"},
		{in: "  Hauptbahnhof  ", want: "Hauptbahnhof"},
	}
	for _, tc := range cases {
		if got := FormatAddress(tc.in); got != tc.want {
			t.Fatalf("FormatAddress(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestIndicator(t *testing.T) {
	if Indicator(model.StatusClosed) != "🔴" || Indicator(model.StatusOpen) != "🟢" || Indicator(model.Status(42)) != "⚪" {
		t.Fatalf("unexpected indicators")
	}
}
