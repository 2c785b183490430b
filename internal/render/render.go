// Package render turns resolution outcomes into the display blocks and reply
// text sent back to the user. Every block has the same shape; absent fields
// are spelled out as Unavailable.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/resolve"
)

const Unavailable = "unavailable"

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// Block is the display form of one ResolvedFacility.
type Block struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	NavLink   string `json:"navigation_link"`
	Indicator string `json:"indicator"`
	Status    string `json:"status"`
	Distance  string `json:"distance"`
	Spots     string `json:"spots"`
	Occupancy string `json:"occupancy"`
	Tariff    string `json:"tariff_hourly"`
	Hours     string `json:"opening_hours"`
	InfoLink  string `json:"info_link"`
}

func NewBlock(r model.ResolvedFacility) Block {
	b := Block{
		Name:      r.Name,
		Address:   orUnavailable(r.Address, FormatAddress),
		NavLink:   Unavailable,
		Indicator: Indicator(r.Status),
		Status:    r.Label,
		Distance:  Unavailable,
		Spots:     fmt.Sprintf("%s / %s", intOr(r.AvailableSpots), intOr(r.TotalCapacity)),
		Occupancy: Unavailable,
		Tariff:    orUnavailable(r.TariffHourly, func(s string) string { return "CHF " + s }),
		Hours:     orUnavailable(r.OpeningHours, nil),
		InfoLink:  orUnavailable(r.InfoLink, nil),
	}
	if b.Status == "" {
		b.Status = model.UnknownLabel
	}
	if p, ok := r.Location.Get(); ok {
		b.NavLink = NavigationLink(p)
	}
	if d, ok := r.DistanceMeters.Get(); ok {
		b.Distance = fmt.Sprintf("%d meters", int(d))
	}
	if o, ok := r.OccupancyPercent.Get(); ok {
		b.Occupancy = fmt.Sprintf("%.2f%%", o)
	}
	return b
}

func Blocks(rs []model.ResolvedFacility) []Block {
	out := make([]Block, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewBlock(r))
	}
	return out
}

// Text is the markdown rendering of the block.
func (b Block) Text() string {
	nav := Unavailable
	if b.NavLink != Unavailable {
		nav = "[Click to open your navigation app and get directions](" + b.NavLink + ")"
	}
	info := Unavailable
	if b.InfoLink != Unavailable {
		info = "[More Info](" + b.InfoLink + ")"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n", b.Name)
	fmt.Fprintf(&sb, "📍 *Address:* %s\n", b.Address)
	fmt.Fprintf(&sb, "🧭 *Navigation:* %s\n", nav)
	fmt.Fprintf(&sb, "%s *Status:* %s\n", b.Indicator, b.Status)
	fmt.Fprintf(&sb, "📏 *Distance:* %s\n", b.Distance)
	fmt.Fprintf(&sb, "🚗 *Available Spots:* %s\n", b.Spots)
	fmt.Fprintf(&sb, "📊 *Occupancy:* %s\n", b.Occupancy)
	fmt.Fprintf(&sb, "💲 *Tariff (1h):* %s\n", b.Tariff)
	fmt.Fprintf(&sb, "🕒 *Opening Hours:* %s\n", b.Hours)
	fmt.Fprintf(&sb, "🔗 *Info:* %s", info)
	return sb.String()
}

// Reply renders the whole message for an outcome.
func Reply(out resolve.Outcome) string {
	if out.Kind != resolve.Matches || len(out.Results) == 0 {
		return NoneFound(maxRadius())
	}
	blocks := Blocks(out.Results)
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text()
	}
	return fmt.Sprintf("✅ *Found parking spots within %d km radius:*\n\n", out.RadiusKm) +
		strings.Join(parts, "\n\n")
}

// NoneFound invites the user to resend their position for a wider search.
func NoneFound(radiusKm int) string {
	return fmt.Sprintf("🚫 *No parking spots found within %d km radius.*\n"+
		"📍 *Would you like to try a larger radius?*\n"+
		"🔄 *Please send your location again with a broader area.*", radiusKm)
}

const (
	CatalogUnavailable = "❌ Sorry, parking data is not available at the moment."
	FeedUnavailable    = "❌ Sorry, dynamic parking data is not available right now."
	InvalidLocation    = "❌ Sorry, that location could not be read. Please share your position again."
)

const Welcome = "📍 *Welcome to Zurich Parking Finder!*\n\n" +
	"🔍 *Find Nearby Parking Spots in Zürich City*\n\n" +
	"📌 *How to Use:*\n" +
	"Share your location and you will get the closest parking houses with their live status.\n\n" +
	"🔒 *Privacy Notice:*\n" +
	"Your location is not stored and is only used to find parking houses within the city of Zürich."

const Help = "ℹ️ *Help Information*\n\n" +
	"🔍 To find nearby parking spots, send your current location.\n" +
	"The search starts at 1 km and widens up to 5 km until something is found; " +
	"at most five parking houses are listed, closest first.\n\n" +
	"🔒 *Privacy Assurance:*\n" +
	"Your location is used solely to find parking houses in Zürich and is not stored."

func Indicator(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return "🟢"
	case model.StatusClosed:
		return "🔴"
	default:
		return "⚪"
	}
}

func NavigationLink(p model.LatLng) string {
	return mapsSearchURL + p.String()
}

// a four digit ZIP followed by the town, not already preceded by a comma
var zipPattern = regexp.MustCompile(`([^,\s])\s+(\d{4}\s+\p{L})`)

// FormatAddress puts a comma between street and ZIP code.
func FormatAddress(s string) string {
	return zipPattern.ReplaceAllString(strings.TrimSpace(s), "${1}, ${2}")
}

func maxRadius() int {
	return resolve.RadiiKm[len(resolve.RadiiKm)-1]
}

func orUnavailable(o model.Opt[string], f func(string) string) string {
	s, ok := o.Get()
	if !ok {
		return Unavailable
	}
	if f != nil {
		return f(s)
	}
	return s
}

func intOr(o model.Opt[int]) string {
	if n, ok := o.Get(); ok {
		return fmt.Sprint(n)
	}
	return Unavailable
}
