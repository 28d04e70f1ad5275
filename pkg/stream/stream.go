// Package stream runs live push-up analysis: a frame-by-frame loop driving a small state machine
// (Idle, CountingDown, Analyzing) over the pose extractor, the live window ring and the form classifier.
package stream

import (
	"context"
	"errors"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/form"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
)

//ErrSourceExhausted ends a session when the camera or video file stops yielding frames
var ErrSourceExhausted = errors.New("video source exhausted")

type State int

const (
	Idle State = iota
	CountingDown
	Analyzing
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case CountingDown:
		return "Get ready"
	case Analyzing:
		return "Analyzing"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

//Action is a user command polled once per frame
type Action int

const (
	NoAction Action = iota
	Start
	Cancel
	Stop
	Quit
)

//Countdown before analysis starts
const (
	CountdownTicks = 3
	TickDuration   = time.Second
)

//Classifier turns a full window into a verdict. *form.Adapter satisfies it.
type Classifier interface {
	Classify(ctx context.Context, w window.Window) (form.Verdict, float64, error)
}

//Event is one verdict published to sinks
type Event struct {
	Session string       `json:"session"`
	Frame   int          `json:"frame"`
	Score   float64      `json:"score"`
	Verdict form.Verdict `json:"verdict"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

//Sink receives every verdict of a session (websocket feed, redis history...)
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

//Overlay is everything the display needs to paint on top of the current frame
type Overlay struct {
	State     State
	Countdown int //remaining ticks while CountingDown
	Keypoints []pose.Keypoint
	Buffered  int
	Capacity  int

	HasVerdict bool
	Verdict    form.Verdict
	Score      float64
}

//Source yields frames in capture order
type Source interface {
	Read() (pose.Frame, error)
}

//Display shows a frame with its overlay and reports the key pressed meanwhile
type Display interface {
	Show(frame pose.Frame, o Overlay) error
	Poll() Action
}
