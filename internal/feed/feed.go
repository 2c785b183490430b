// Package feed decodes the PLS live status RSS feed into a per-facility snapshot.
package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
)

// ErrUnavailable marks a feed that could not be fetched or decoded.
var ErrUnavailable = errors.New("live status feed unavailable")

const sep = " / "

// Snapshot maps facility name to its live status. It is built per query and never cached.
type Snapshot map[string]model.StatusRecord

// Lookup joins by exact, case-sensitive name; unknown names get an unknown status.
func (s Snapshot) Lookup(name string) model.StatusRecord {
	if r, ok := s[name]; ok {
		return r
	}
	return model.UnknownStatus()
}

type item struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

// Parse reads every <item> of the document. Items are keyed by the title
// part before " / "; later items overwrite earlier ones with the same name.
func Parse(r io.Reader) (Snapshot, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	out := Snapshot{}
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode feed xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if se.Name.Local != "item" {
			continue
		}
		var it item
		if err := dec.DecodeElement(&it, &se); err != nil {
			return nil, fmt.Errorf("decode feed item: %w", err)
		}
		name := strings.TrimSpace(strings.SplitN(it.Title, sep, 2)[0])
		if name == "" {
			continue
		}
		out[name] = parseDescription(it.Description)
	}
	if !sawRoot {
		return nil, errors.New("decode feed xml: empty document")
	}
	return out, nil
}

// parseDescription splits "status / spots". Anything that is not exactly two
// parts is a bare status; spots are kept only when purely numeric.
func parseDescription(desc string) model.StatusRecord {
	parts := strings.Split(desc, sep)
	label := strings.TrimSpace(desc)
	spots := model.None[int]()
	if len(parts) == 2 {
		label = strings.TrimSpace(parts[0])
		spots = parseSpots(parts[1])
	}
	if label == "" {
		return model.StatusRecord{Label: model.UnknownLabel, Status: model.StatusUnknown, AvailableSpots: spots}
	}
	return model.StatusRecord{Label: label, Status: model.ParseStatus(label), AvailableSpots: spots}
}

func parseSpots(s string) model.Opt[int] {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.None[int]()
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return model.None[int]()
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return model.None[int]()
	}
	return model.Some(n)
}
