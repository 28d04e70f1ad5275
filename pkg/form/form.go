// Package form maps a full pose window to a push-up form verdict through a black-box sequence classifier.
package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
)

//Verdict is the three-level form quality shown to the user
type Verdict int

const (
	Poor Verdict = iota
	Fair
	Good
)

//Score thresholds. A score exactly on a threshold belongs to the upper verdict.
const (
	FairFrom = 0.3
	GoodFrom = 0.7
)

//VerdictFor maps a classifier score in [0,1] to a Verdict
func VerdictFor(score float64) Verdict {
	switch {
	case score < FairFrom:
		return Poor
	case score < GoodFrom:
		return Fair
	default:
		return Good
	}
}

func (v Verdict) String() string {
	switch v {
	case Poor:
		return "poor"
	case Fair:
		return "fair"
	case Good:
		return "good"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

//Message is the feedback line drawn on screen
func (v Verdict) Message() string {
	switch v {
	case Poor:
		return "Poor form - Major corrections needed"
	case Fair:
		return "Fair form - Minor adjustments recommended"
	default:
		return "Good form!"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(b []byte) error {
	switch string(b) {
	case "poor":
		*v = Poor
	case "fair":
		*v = Fair
	case "good":
		*v = Good
	default:
		return fmt.Errorf("unknown verdict '%s'", string(b))
	}
	return nil
}

//Predictor is the sequence classifier: a (batch, SequenceLength, Features) array in, one score per sequence out
type Predictor interface {
	Predict(ctx context.Context, batch [][][]float64) ([]float64, error)
}

//ErrBadScore is returned when the classifier answers with something that is not a single score in [0,1]
var ErrBadScore = errors.New("classifier returned an invalid score")

//Adapter feeds single windows to a Predictor
type Adapter struct {
	predictor Predictor
	shape     window.Shape
}

func NewAdapter(predictor Predictor, shape window.Shape) *Adapter {
	return &Adapter{predictor: predictor, shape: shape}
}

//Classify scores one window. A window of the wrong shape is a caller bug and panics.
func (a *Adapter) Classify(ctx context.Context, w window.Window) (Verdict, float64, error) {
	if w.Len() != a.shape.Length {
		panic(fmt.Sprintf("form: window of %d frames reached the classifier, shape is %v", w.Len(), a.shape))
	}

	seq := w.Matrix()
	for i, row := range seq {
		if len(row) != a.shape.Features {
			panic(fmt.Sprintf("form: frame %d has %d features, shape is %v", i, len(row), a.shape))
		}
	}

	scores, err := a.predictor.Predict(ctx, [][][]float64{seq})
	if err != nil {
		return Poor, 0, fmt.Errorf("Classify: %w", err)
	}
	//written so NaN fails too
	if len(scores) != 1 || !(scores[0] >= 0 && scores[0] <= 1) {
		return Poor, 0, fmt.Errorf("Classify: got %v: %w", scores, ErrBadScore)
	}

	return VerdictFor(scores[0]), scores[0], nil
}
