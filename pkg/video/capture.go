// Package video holds everything that touches OpenCV: reading cameras and files, the DNN pose model,
// JPEG encoding for the pose helper, and the analysis window.
package video

import (
	"fmt"
	"io"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/dataset"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"gocv.io/x/gocv"
)

//MatFrame is a pose.Frame backed by an OpenCV matrix
type MatFrame struct {
	Mat gocv.Mat
}

func (f MatFrame) Width() int  { return f.Mat.Cols() }
func (f MatFrame) Height() int { return f.Mat.Rows() }

//Capture reads frames from a video file or a camera. The returned frame is reused by the next Read.
type Capture struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
	fps float64
}

//OpenFile opens a recorded video
func OpenFile(path string) (*Capture, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("OpenFile: could not open '%s', got '%w'", path, err)
	}
	return newCapture(cap), nil
}

//OpenDevice opens a camera by index
func OpenDevice(id int) (*Capture, error) {
	cap, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("OpenDevice: could not open camera %d, got '%w'", id, err)
	}
	return newCapture(cap), nil
}

//OpenSource is a dataset.Opener for recorded videos
func OpenSource(path string) (dataset.Source, error) {
	return OpenFile(path)
}

func newCapture(cap *gocv.VideoCapture) *Capture {
	return &Capture{cap: cap, mat: gocv.NewMat(), fps: cap.Get(gocv.VideoCaptureFPS)}
}

//FPS is the stream's own frame rate as reported by the container or the camera
func (c *Capture) FPS() float64 {
	return c.fps
}

//Read returns io.EOF once no more frames can be read
func (c *Capture) Read() (pose.Frame, error) {
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, io.EOF
	}
	return MatFrame{Mat: c.mat}, nil
}

func (c *Capture) Close() error {
	c.mat.Close()
	return c.cap.Close()
}
