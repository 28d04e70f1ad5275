// Package pose turns single frames into flat landmark feature vectors.
// The pose model itself is an Estimator supplied by the caller.
package pose

//Keypoint is one estimated landmark in estimator-normalized coordinates (x,y usually in [0,1])
type Keypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

//Result is what an Estimator reports for a single frame
type Result struct {
	Detected  bool
	Keypoints []Keypoint
}

//Frame is one captured image. Implementations wrap the capture library's buffer.
type Frame interface {
	Width() int
	Height() int
}

//Estimator wraps an external pose model: frame in, ordered keypoints (or no detection) out
type Estimator interface {
	Process(frame Frame) (Result, error)
}

//FeatureVector is landmark 0's x,y,z followed by landmark 1's x,y,z and so on
type FeatureVector []float64

//Keypoints unflattens the vector back into landmarks, used for drawing
func (v FeatureVector) Keypoints() []Keypoint {
	pts := make([]Keypoint, 0, len(v)/3)
	for i := 0; i+2 < len(v); i += 3 {
		pts = append(pts, Keypoint{X: v[i], Y: v[i+1], Z: v[i+2]})
	}
	return pts
}

//Flatten builds a FeatureVector in canonical landmark order
func Flatten(keypoints []Keypoint) FeatureVector {
	vec := make(FeatureVector, 0, len(keypoints)*3)
	for _, kp := range keypoints {
		vec = append(vec, kp.X, kp.Y, kp.Z)
	}
	return vec
}
