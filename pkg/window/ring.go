package window

import "github.com/chenBenjamin97/pushup-analyzer/pkg/pose"

//Ring is the live buffer: the latest Shape.Length vectors, evicting the oldest on overflow
type Ring struct {
	shape Shape
	slots []pose.FeatureVector
	head  int //index of the oldest vector
	size  int
}

func NewRing(shape Shape) *Ring {
	return &Ring{shape: shape, slots: make([]pose.FeatureVector, shape.Length)}
}

func (r *Ring) Push(v pose.FeatureVector) {
	checkVector(r.shape, v)

	if r.size < len(r.slots) {
		r.slots[(r.head+r.size)%len(r.slots)] = v
		r.size++
		return
	}

	r.slots[r.head] = v
	r.head = (r.head + 1) % len(r.slots)
}

func (r *Ring) Len() int {
	return r.size
}

//Cap is the window length the ring fills up to
func (r *Ring) Cap() int {
	return len(r.slots)
}

//Full reports whether a window can be taken
func (r *Ring) Full() bool {
	return r.size == len(r.slots)
}

func (r *Ring) Reset() {
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.head, r.size = 0, 0
}

//Snapshot copies the buffer oldest-first into a Window. It returns false until the ring is full.
func (r *Ring) Snapshot() (Window, bool) {
	if !r.Full() {
		return Window{}, false
	}

	vecs := make([]pose.FeatureVector, r.size)
	for i := 0; i < r.size; i++ {
		vecs[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return Window{vectors: vecs}, true
}
