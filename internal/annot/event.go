package annot

import (
	"fmt"
	"strconv"
	"strings"
)

// Event is a single annotation: a labeled time span on a channel.
// Times are seconds from the start of the recording.
type Event struct {
	Channel    string  `json:"channel"`
	StartTime  float64 `json:"start_time"`
	StopTime   float64 `json:"stop_time"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the event length in seconds.
func (e Event) Duration() float64 {
	return e.StopTime - e.StartTime
}

// Validate checks the time and confidence invariants.
func (e Event) Validate() error {
	if e.StartTime < 0 {
		return fmt.Errorf("start_time %v is negative", e.StartTime)
	}
	if e.StopTime <= e.StartTime {
		return fmt.Errorf("stop_time (%v) must be > start_time (%v)", e.StopTime, e.StartTime)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", e.Confidence)
	}
	return nil
}

// ParseEventLine parses a CSV_BI data row:
// channel,start_time,stop_time,label,confidence
func ParseEventLine(line string) (Event, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 5 {
		return Event{}, fmt.Errorf("expected 5 fields, got %d: %q", len(parts), line)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Event{}, fmt.Errorf("bad start_time: %w", err)
	}
	stop, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Event{}, fmt.Errorf("bad stop_time: %w", err)
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil {
		return Event{}, fmt.Errorf("bad confidence: %w", err)
	}
	ev := Event{
		Channel:    strings.TrimSpace(parts[0]),
		StartTime:  start,
		StopTime:   stop,
		Label:      strings.TrimSpace(parts[3]),
		Confidence: conf,
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
