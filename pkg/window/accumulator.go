package window

import "github.com/chenBenjamin97/pushup-analyzer/pkg/pose"

//Observation is one offline frame as seen by the Accumulator
type Observation struct {
	Vector  pose.FeatureVector //nil on a detection miss
	Label   int
	Labeled bool //false when no segment covers the frame
}

//Accumulator turns a video's frame observations into overlapping training examples
type Accumulator struct {
	shape Shape
	buf   []pose.FeatureVector
	label int
}

func NewAccumulator(shape Shape) *Accumulator {
	return &Accumulator{shape: shape, buf: make([]pose.FeatureVector, 0, shape.Length)}
}

//Len is the number of frames accumulated since the last reset
func (a *Accumulator) Len() int {
	return len(a.buf)
}

//Reset drops every accumulated frame
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
}

//Push folds one frame in. It returns an example every time the accumulator is full,
//after which the oldest frame is dropped so consecutive examples overlap by Length-1 frames.
func (a *Accumulator) Push(o Observation) (Example, bool) {
	if o.Vector == nil || !o.Labeled {
		a.Reset()
		return Example{}, false
	}
	checkVector(a.shape, o.Vector)

	//a label change is a hard reset like a miss, the next run starts after the changing frame
	if len(a.buf) > 0 && o.Label != a.label {
		a.Reset()
		a.label = o.Label
		return Example{}, false
	}
	a.label = o.Label
	a.buf = append(a.buf, o.Vector)

	if len(a.buf) < a.shape.Length {
		return Example{}, false
	}

	ex := Example{Window: snapshot(a.buf), Label: a.label}
	copy(a.buf, a.buf[1:])
	a.buf = a.buf[:len(a.buf)-1]
	return ex, true
}

//Examples runs a fresh Accumulator over obs
func Examples(shape Shape, obs []Observation) []Example {
	acc := NewAccumulator(shape)
	var out []Example
	for _, o := range obs {
		if ex, ok := acc.Push(o); ok {
			out = append(out, ex)
		}
	}
	return out
}
