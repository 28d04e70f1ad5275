package stream

import (
	"context"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/form"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//Controller owns the live ring. It is driven by a single loop and is not safe for concurrent use.
type Controller struct {
	extractor  *pose.Extractor
	classifier Classifier
	sinks      []Sink
	ring       *window.Ring
	now        func() time.Time
	log        *logrus.Entry

	state          State
	session        string
	countdownStart time.Time
	frame          int //frames seen while Analyzing

	hasVerdict bool
	verdict    form.Verdict
	score      float64
}

type Option func(*Controller)

//WithClock replaces time.Now, tests use it to step through the countdown
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithSinks(sinks ...Sink) Option {
	return func(c *Controller) { c.sinks = append(c.sinks, sinks...) }
}

//NewController builds a controller in Idle. classifier may be nil, then frames are analyzed
//and buffered but never classified.
func NewController(extractor *pose.Extractor, classifier Classifier, shape window.Shape, opts ...Option) *Controller {
	c := &Controller{
		extractor:  extractor,
		classifier: classifier,
		ring:       window.NewRing(shape),
		now:        time.Now,
		log:        logrus.WithField("component", "stream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	return c.state
}

//Buffered is the number of vectors currently in the ring
func (c *Controller) Buffered() int {
	return c.ring.Len()
}

//Session is the id of the current or last analysis session
func (c *Controller) Session() string {
	return c.session
}

func (c *Controller) apply(action Action) {
	switch action {
	case Quit:
		c.ring.Reset()
		c.state = Closed
		c.log.WithField("session", c.session).Info("quit")

	case Start:
		if c.state != Idle {
			return
		}
		c.ring.Reset()
		c.hasVerdict = false
		c.frame = 0
		c.session = uuid.NewString()
		c.countdownStart = c.now()
		c.state = CountingDown
		c.log.WithField("session", c.session).Info("countdown started")

	case Cancel:
		if c.state != CountingDown {
			return
		}
		c.state = Idle
		c.log.WithField("session", c.session).Info("countdown cancelled")

	case Stop:
		if c.state != Analyzing && c.state != CountingDown {
			return
		}
		c.ring.Reset()
		c.state = Idle
		c.log.WithField("session", c.session).Info("analysis stopped")
	}
}

//Step processes one frame after applying the action polled for it
func (c *Controller) Step(ctx context.Context, frame pose.Frame, action Action) Overlay {
	if c.state == Closed {
		return Overlay{State: Closed}
	}
	c.apply(action)
	if c.state == Closed {
		return Overlay{State: Closed}
	}

	vec, detected := c.extractor.Extract(frame)

	o := Overlay{State: c.state}
	if detected {
		o.Keypoints = vec.Keypoints()
	}

	if c.state == CountingDown {
		elapsed := c.now().Sub(c.countdownStart)
		if elapsed < CountdownTicks*TickDuration {
			o.Countdown = CountdownTicks - int(elapsed/TickDuration)
			return c.fill(o)
		}
		c.state = Analyzing
		o.State = Analyzing
		c.log.WithField("session", c.session).Info("analysis started")
	}

	if c.state == Analyzing {
		c.frame++
		//a miss leaves the ring as it was, so there is nothing new to classify
		if detected {
			c.ring.Push(vec)
			if c.classifier != nil {
				if w, full := c.ring.Snapshot(); full {
					c.classify(ctx, w)
				}
			}
		}
	}

	return c.fill(o)
}

func (c *Controller) fill(o Overlay) Overlay {
	o.Buffered = c.ring.Len()
	o.Capacity = c.ring.Cap()
	if c.state == Analyzing && c.hasVerdict {
		o.HasVerdict = true
		o.Verdict = c.verdict
		o.Score = c.score
	}
	return o
}

func (c *Controller) classify(ctx context.Context, w window.Window) {
	verdict, score, err := c.classifier.Classify(ctx, w)
	if err != nil {
		c.log.WithField("session", c.session).Warnf("classify: could not classify window, got '%v'", err)
		return
	}
	c.hasVerdict, c.verdict, c.score = true, verdict, score

	e := Event{
		Session: c.session,
		Frame:   c.frame,
		Score:   score,
		Verdict: verdict,
		Message: verdict.Message(),
		At:      c.now().UTC(),
	}
	for _, s := range c.sinks {
		if err := s.Publish(ctx, e); err != nil {
			c.log.WithField("session", c.session).Warnf("classify: sink failed, got '%v'", err)
		}
	}
}
