package pose

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

//wireResult is one line written by the pose helper process:
//{"detected": true, "keypoints": [[x,y,z], ...]}
type wireResult struct {
	Detected  bool        `json:"detected"`
	Keypoints [][]float64 `json:"keypoints"`
}

//DecodeResult parses one response line of the pose helper process
func DecodeResult(line []byte) (Result, error) {
	var w wireResult
	if err := json.Unmarshal(line, &w); err != nil {
		return Result{}, fmt.Errorf("DecodeResult: invalid json, got '%w'", err)
	}

	if !w.Detected {
		return Result{}, nil
	}

	pts := make([]Keypoint, len(w.Keypoints))
	for i, kp := range w.Keypoints {
		if len(kp) != 3 {
			return Result{}, fmt.Errorf("DecodeResult: keypoint %d has %d coordinates, want 3", i, len(kp))
		}
		pts[i] = Keypoint{X: kp[0], Y: kp[1], Z: kp[2]}
	}

	return Result{Detected: true, Keypoints: pts}, nil
}

//EncodeFrameLine wraps an encoded image as one request line for the pose helper process
func EncodeFrameLine(image []byte) []byte {
	line := make([]byte, base64.StdEncoding.EncodedLen(len(image)))
	base64.StdEncoding.Encode(line, image)
	return line
}
