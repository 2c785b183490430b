// Package router holds the HTTP handlers of the parking finder front-end.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/zh-parking-finder/internal/catalog"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/model"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/observability"
	"github.com/mohammed-shakir/zh-parking-finder/internal/feed"
	"github.com/mohammed-shakir/zh-parking-finder/internal/finder"
	"github.com/mohammed-shakir/zh-parking-finder/internal/render"
)

const (
	outcomeInvalid            = "invalid_location"
	outcomeCatalogUnavailable = "catalog_unavailable"
	outcomeFeedUnavailable    = "feed_unavailable"
	outcomeInternal           = "internal_error"
)

type NearbyResponse struct {
	Outcome  string         `json:"outcome"`
	RadiusKm int            `json:"radius_km,omitempty"`
	Results  []render.Block `json:"results"`
	Reply    string         `json:"reply"`
}

// HandleNearby answers GET /nearby?lat=..&lon=..[&format=text].
func HandleNearby(logger *slog.Logger, f finder.Interface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, "/nearby", sw.code, time.Since(start).Seconds())
		}()
		text := strings.EqualFold(r.URL.Query().Get("format"), "text")

		p, err := ParseLocation(r)
		if err != nil {
			logger.DebugContext(r.Context(), "rejecting location", "err", err)
			writeReply(sw, text, http.StatusBadRequest, NearbyResponse{
				Outcome: outcomeInvalid,
				Reply:   render.InvalidLocation,
			})
			return
		}

		out, err := f.Nearby(r.Context(), p)
		if err != nil {
			code, resp := errorReply(err)
			if code == http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "nearby failed", "err", err)
			}
			writeReply(sw, text, code, resp)
			return
		}

		writeReply(sw, text, http.StatusOK, NearbyResponse{
			Outcome:  out.Kind.String(),
			RadiusKm: out.RadiusKm,
			Results:  render.Blocks(out.Results),
			Reply:    render.Reply(out),
		})
	}
}

// HandleHelp serves the welcome and help texts.
func HandleHelp() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "%s\n\n%s\n", render.Welcome, render.Help)
	}
}

func errorReply(err error) (int, NearbyResponse) {
	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusServiceUnavailable, NearbyResponse{Outcome: outcomeCatalogUnavailable, Reply: render.CatalogUnavailable}
	case errors.Is(err, feed.ErrUnavailable):
		return http.StatusServiceUnavailable, NearbyResponse{Outcome: outcomeFeedUnavailable, Reply: render.FeedUnavailable}
	default:
		return http.StatusInternalServerError, NearbyResponse{Outcome: outcomeInternal, Reply: render.CatalogUnavailable}
	}
}

func writeReply(w http.ResponseWriter, text bool, code int, resp NearbyResponse) {
	if resp.Results == nil {
		resp.Results = []render.Block{}
	}
	if text {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		_, _ = fmt.Fprintln(w, resp.Reply)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseLocation reads lat and lon (alias lng) from the query string.
func ParseLocation(r *http.Request) (model.LatLng, error) {
	q := r.URL.Query()
	rawLat := strings.TrimSpace(q.Get("lat"))
	rawLng := strings.TrimSpace(q.Get("lon"))
	if rawLng == "" {
		rawLng = strings.TrimSpace(q.Get("lng"))
	}
	if rawLat == "" || rawLng == "" {
		return model.LatLng{}, errors.New("missing required parameters: lat, lon")
	}
	lat, err := parseFloat(rawLat)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(rawLng)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("lon: %w", err)
	}
	p := model.LatLng{Lat: lat, Lng: lng}
	if !p.Valid() {
		return model.LatLng{}, fmt.Errorf("coordinate out of range: %s", p)
	}
	return p, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
