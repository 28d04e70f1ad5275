package pose

import (
	"context"
	"fmt"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/utils"
)

//FrameEncoder serializes a frame into an image file format the helper process can decode (JPEG, PNG...)
type FrameEncoder interface {
	Encode(frame Frame) ([]byte, error)
}

//Bridge is an Estimator backed by a helper process running the real pose model (e.g. MediaPipe).
//Each frame is sent as one base64 line and answered with one DecodeResult line.
type Bridge struct {
	proc    *utils.LineProcess
	encoder FrameEncoder

	//Timeout bounds one frame's answer, the helper is killed when it is exceeded
	Timeout time.Duration
}

const DefaultFrameTimeout = 30 * time.Second

//StartBridge runs `python script args...` and returns an Estimator talking to it
func StartBridge(encoder FrameEncoder, python, script string, args ...string) (*Bridge, error) {
	proc, err := utils.StartLineProcess(python, append([]string{script}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("StartBridge: %w", err)
	}
	return &Bridge{proc: proc, encoder: encoder, Timeout: DefaultFrameTimeout}, nil
}

func (b *Bridge) Process(frame Frame) (Result, error) {
	img, err := b.encoder.Encode(frame)
	if err != nil {
		return Result{}, fmt.Errorf("Bridge: could not encode frame, got '%w'", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()

	line, err := b.proc.Exchange(ctx, EncodeFrameLine(img))
	if err != nil {
		return Result{}, err
	}

	return DecodeResult(line)
}

func (b *Bridge) Close() error {
	return b.proc.Close()
}
