package video

import (
	"errors"
	"fmt"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"gocv.io/x/gocv"
)

//JPEGEncoder feeds frames to the pose helper process
type JPEGEncoder struct{}

func (JPEGEncoder) Encode(frame pose.Frame) ([]byte, error) {
	mf, ok := frame.(MatFrame)
	if !ok {
		return nil, errors.New("Encode: frame is not an OpenCV matrix")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mf.Mat)
	if err != nil {
		return nil, fmt.Errorf("Encode: %w", err)
	}
	defer buf.Close()

	//buffer memory belongs to OpenCV
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
