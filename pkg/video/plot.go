package video

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/form"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"gocv.io/x/gocv"
)

var (
	whiteRGB    = color.RGBA{255, 255, 255, 0}
	landmarkRGB = color.RGBA{0, 255, 255, 0}
	verdictRGB  = map[form.Verdict]color.RGBA{
		form.Poor: {220, 0, 0, 0},
		form.Fair: {255, 140, 0, 0},
		form.Good: {0, 180, 0, 0},
	}
)

//DrawOverlay paints landmarks, the session state, the countdown and the latest verdict on frame
func DrawOverlay(frame *gocv.Mat, o stream.Overlay) {
	w, h := frame.Cols(), frame.Rows()

	for _, kp := range o.Keypoints {
		gocv.Circle(frame, image.Pt(int(kp.X*float64(w)), int(kp.Y*float64(h))), 4, landmarkRGB, -1)
	}

	state := o.State.String()
	if o.State == stream.Analyzing {
		state = fmt.Sprintf("%s %d/%d", state, o.Buffered, o.Capacity)
	}
	plotLabel(frame, state, image.Pt(10, 30), color.RGBA{60, 60, 60, 0})

	if o.State == stream.CountingDown && o.Countdown > 0 {
		text := fmt.Sprintf("%d", o.Countdown)
		size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 4, 8)
		gocv.PutText(frame, text, image.Pt((w-size.X)/2, (h+size.Y)/2), gocv.FontHersheySimplex, 4, whiteRGB, 8)
	}

	if o.HasVerdict {
		text := fmt.Sprintf("%s (%.2f)", o.Verdict.Message(), o.Score)
		plotLabel(frame, text, image.Pt(10, h-20), verdictRGB[o.Verdict])
	}
}

//plotLabel writes text above a filled background box starting at org (bottom-left of the text)
func plotLabel(frame *gocv.Mat, text string, org image.Point, background color.RGBA) {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.8, 2)
	box := image.Rect(org.X-5, org.Y-size.Y-8, org.X+size.X+5, org.Y+8)
	gocv.Rectangle(frame, box, background, -1) //thickness -1 == filled rectangle
	gocv.PutText(frame, text, org, gocv.FontHersheySimplex, 0.8, whiteRGB, 2)
}
