// Package reload defines the catalog reload notification exchanged over Kafka.
package reload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event tells running instances that a new catalog document is available.
// Version must grow monotonically per Source; Checksum is the xxhash64 of
// the published document as 16 hex digits.
type Event struct {
	Version  uint64    `json:"version"`
	TS       time.Time `json:"ts"`
	Source   string    `json:"source"`
	Checksum string    `json:"checksum,omitempty"`
}

func (e Event) Validate() error {
	if e.Version == 0 {
		return fmt.Errorf("version is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	if strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if e.Checksum != "" {
		if _, err := e.Sum(); err != nil {
			return err
		}
	}
	return nil
}

// Sum parses Checksum.
func (e Event) Sum() (uint64, error) {
	if len(e.Checksum) != 16 {
		return 0, fmt.Errorf("checksum must be 16 hex digits")
	}
	v, err := strconv.ParseUint(e.Checksum, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("checksum: %w", err)
	}
	return v, nil
}

func FormatChecksum(sum uint64) string { return fmt.Sprintf("%016x", sum) }

func Decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, fmt.Errorf("validate: %w", err)
	}
	return ev, nil
}
