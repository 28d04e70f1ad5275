package stream

import (
	"context"
	"fmt"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
)

//Run is the live loop: read a frame, step the controller with the action polled after the previous frame,
//show the result, poll the keyboard. A failed read ends the session with ErrSourceExhausted, quit ends it with nil.
func Run(ctx context.Context, src Source, display Display, ctl *Controller) error {
	action := NoAction
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := src.Read()
		if err != nil {
			return fmt.Errorf("Run: %v: %w", err, ErrSourceExhausted)
		}

		o := ctl.Step(ctx, frame, action)
		if o.State == Closed {
			return nil
		}

		if err := display.Show(frame, o); err != nil {
			return fmt.Errorf("Run: could not show frame, got '%w'", err)
		}

		action = display.Poll()
		if action == Quit {
			ctl.apply(Quit)
			return nil
		}
	}
}

//Headless is a Display without a window: it starts analysis on the first frame and never stops it.
//It is used to analyze a recorded video from the command line.
type Headless struct {
	started bool
}

func (h *Headless) Show(pose.Frame, Overlay) error {
	return nil
}

func (h *Headless) Poll() Action {
	if !h.started {
		h.started = true
		return Start
	}
	return NoAction
}

//KeyAction maps a key code from the display to an Action: s start, c cancel, x stop, q or ESC quit
func KeyAction(key int) Action {
	switch key {
	case 's', 'S':
		return Start
	case 'c', 'C':
		return Cancel
	case 'x', 'X':
		return Stop
	case 'q', 'Q', 27:
		return Quit
	default:
		return NoAction
	}
}
