package video

import (
	"errors"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"gocv.io/x/gocv"
)

//Window is the on-screen stream.Display
type Window struct {
	win *gocv.Window
	key int
}

func NewWindow(name string) *Window {
	return &Window{win: gocv.NewWindow(name), key: -1}
}

//Show draws the overlay on the frame, shows it and waits 1ms for a key
func (w *Window) Show(frame pose.Frame, o stream.Overlay) error {
	mf, ok := frame.(MatFrame)
	if !ok {
		return errors.New("Show: frame is not an OpenCV matrix")
	}

	DrawOverlay(&mf.Mat, o)
	w.win.IMShow(mf.Mat)
	w.key = w.win.WaitKey(1)
	return nil
}

func (w *Window) Poll() stream.Action {
	action := stream.KeyAction(w.key)
	w.key = -1
	return action
}

func (w *Window) Close() error {
	return w.win.Close()
}
