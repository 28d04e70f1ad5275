package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

//ErrProcessClosed is returned by Exchange once the helper process has exited or was closed
var ErrProcessClosed = errors.New("helper process closed")

const maxLineSize = 16 << 20

//LineProcess drives a long-running helper (usually a python model script) over stdin/stdout,
//one request line in and one response line out.
type LineProcess struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	mu      sync.Mutex
	closed  bool

	//quit is closed by Close so a pending Exchange gives up the lock
	quit     chan struct{}
	quitOnce sync.Once
	waitOnce sync.Once
	waitErr  error
}

//StartLineProcess starts name with args and keeps its pipes open until Close
func StartLineProcess(name string, args ...string) (*LineProcess, error) {
	cmd := exec.Command(name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("StartLineProcess: could not get standard input, got '%w'", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StartLineProcess: could not get standard output, got '%w'", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("StartLineProcess: could not start '%s', got '%w'", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &LineProcess{cmd: cmd, stdin: stdin, scanner: scanner, quit: make(chan struct{})}, nil
}

type answer struct {
	line []byte
	err  error
}

//Exchange writes one line and waits for the helper's answer line. When ctx is done (or Close
//is called) before the answer arrives the helper is killed, since its stream is out of sync.
func (p *LineProcess) Exchange(ctx context.Context, line []byte) ([]byte, error) {
	select {
	case <-p.quit:
		return nil, ErrProcessClosed
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrProcessClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := p.stdin.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("Exchange: write failed, got '%v': %w", err, ErrProcessClosed)
	}

	answers := make(chan answer, 1)
	go func() {
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				answers <- answer{err: fmt.Errorf("Exchange: read failed, got '%v': %w", err, ErrProcessClosed)}
				return
			}
			answers <- answer{err: ErrProcessClosed}
			return
		}

		//scanner reuses its buffer on the next Scan
		out := make([]byte, len(p.scanner.Bytes()))
		copy(out, p.scanner.Bytes())
		answers <- answer{line: out}
	}()

	select {
	case a := <-answers:
		return a.line, a.err
	case <-ctx.Done():
		p.kill()
		return nil, fmt.Errorf("Exchange: no answer, got '%v': %w", ctx.Err(), ErrProcessClosed)
	case <-p.quit:
		p.kill()
		return nil, ErrProcessClosed
	}
}

//kill must be called with mu held
func (p *LineProcess) kill() {
	p.closed = true
	p.cmd.Process.Kill()
	p.wait()
}

func (p *LineProcess) wait() error {
	p.waitOnce.Do(func() { p.waitErr = p.cmd.Wait() })
	return p.waitErr
}

//Close closes stdin, which tells the helper to exit, and waits for it. A pending Exchange is
//interrupted first so Close never waits on a hung helper's answer.
func (p *LineProcess) Close() error {
	p.quitOnce.Do(func() { close(p.quit) })

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.stdin.Close()
	if err := p.wait(); err != nil {
		return fmt.Errorf("Close: helper process exited with '%w'", err)
	}
	return nil
}
