package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

//ErrInvalidSegment marks a segment whose label or bounds make no sense
var ErrInvalidSegment = errors.New("invalid segment")

const (
	LabelBad  = 0
	LabelGood = 1
)

//Segment is a labeled interval [Start, End] in whole seconds of one source video
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Label int `json:"label"`
}

//Contains reports whether ts (seconds) falls inside the segment, both ends included
func (s Segment) Contains(ts float64) bool {
	return float64(s.Start) <= ts && ts <= float64(s.End)
}

//LabelAt returns the label of the first segment containing ts. Overlapping segments are not
//rejected: the earliest declared one wins.
func LabelAt(ts float64, segments []Segment) (int, bool) {
	for _, s := range segments {
		if s.Contains(ts) {
			return s.Label, true
		}
	}
	return 0, false
}

//RawSegment is a segment as written by people: start/end may be numbers or "MM:SS" strings
type RawSegment struct {
	Start interface{} `json:"start" yaml:"start" toml:"start"`
	End   interface{} `json:"end" yaml:"end" toml:"end"`
	Label int         `json:"label" yaml:"label" toml:"label"`
}

//ParseSegments converts raw timing entries into seconds; the first malformed entry aborts the whole list
func ParseSegments(raw []RawSegment) ([]Segment, error) {
	out := make([]Segment, 0, len(raw))
	for i, r := range raw {
		start, err := parseTime(r.Start)
		if err != nil {
			return nil, fmt.Errorf("segment %d start: %w", i, err)
		}
		end, err := parseTime(r.End)
		if err != nil {
			return nil, fmt.Errorf("segment %d end: %w", i, err)
		}

		if r.Label != LabelBad && r.Label != LabelGood {
			return nil, fmt.Errorf("segment %d: label must be 0 or 1, got %d: %w", i, r.Label, ErrInvalidSegment)
		}
		if end < start {
			return nil, fmt.Errorf("segment %d: end %d is before start %d: %w", i, end, start, ErrInvalidSegment)
		}

		out = append(out, Segment{Start: start, End: end, Label: r.Label})
	}
	return out, nil
}

//parseTime accepts whatever the decoders produce for a scalar: strings, integers or integral floats (json)
func parseTime(v interface{}) (int, error) {
	switch t := v.(type) {
	case string:
		return ParseTimestamp(t)
	case int:
		return ParseTimestamp(strconv.Itoa(t))
	case int64:
		return ParseTimestamp(strconv.FormatInt(t, 10))
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, &TimestampError{Value: strconv.FormatFloat(t, 'f', -1, 64)}
		}
		return ParseTimestamp(strconv.FormatInt(int64(t), 10))
	default:
		return 0, &TimestampError{Value: fmt.Sprintf("%v", v)}
	}
}
