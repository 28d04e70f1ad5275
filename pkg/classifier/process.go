package classifier

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/utils"
	"github.com/sirupsen/logrus"
)

//Process is a Predictor backed by a persistent helper that loads the model once.
//Each sequence goes out as one JSON line, each score comes back as one line.
type Process struct {
	proc *utils.LineProcess
}

//StartProcess runs `python script --model <model> --timestamps <length> --features <features>`
func StartProcess(python, script, model string, length, features int) (*Process, error) {
	proc, err := utils.StartLineProcess(python, script,
		"--model", model,
		"--timestamps", strconv.Itoa(length),
		"--features", strconv.Itoa(features))
	if err != nil {
		return nil, fmt.Errorf("StartProcess: %w", err)
	}
	return &Process{proc: proc}, nil
}

func (p *Process) Predict(ctx context.Context, batch [][][]float64) ([]float64, error) {
	scores := make([]float64, 0, len(batch))
	for _, seq := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := json.Marshal(seq)
		if err != nil {
			return nil, err
		}

		out, err := p.proc.Exchange(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
		if err != nil {
			return nil, fmt.Errorf("predict: bad score line '%s'", string(out))
		}
		scores = append(scores, score)
	}
	return scores, nil
}

func (p *Process) Close() error {
	return p.proc.Close()
}

//TrainProcess runs `python script --train <dataset> --model <model>` to completion,
//forwarding the helper's output to the log line by line.
func TrainProcess(ctx context.Context, python, script, datasetPath, model string) error {
	cmd := exec.CommandContext(ctx, python, script, "--train", datasetPath, "--model", model)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("TrainProcess: could not get standard output, got '%w'", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("TrainProcess: could not start '%s', got '%w'", python, err)
	}

	forward(stdout, logrus.WithField("script", script))

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("TrainProcess: training failed, got '%w'", err)
	}
	return nil
}

func forward(r io.Reader, log *logrus.Entry) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Info(scanner.Text())
	}
}
