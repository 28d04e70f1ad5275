// Package classifier talks to the push-up form model, either an HTTP model server or a helper process.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

//ErrUnavailable is returned when the model server cannot be reached or answers with a server error
var ErrUnavailable = errors.New("classifier unavailable")

// --- Predict (/predict) ---
type PredictReq struct {
	Sequences [][][]float64 `json:"sequences"`
}
type PredictResp struct {
	Scores []float64 `json:"scores"`
}

// --- Train (/train) ---
type TrainReq struct {
	XTrain    [][][]float64 `json:"x_train"`
	YTrain    []int         `json:"y_train"`
	XVal      [][][]float64 `json:"x_val"`
	YVal      []int         `json:"y_val"`
	ModelPath string        `json:"model_path"`
}

//History holds one value per epoch
type History struct {
	Loss        []float64 `json:"loss"`
	Accuracy    []float64 `json:"accuracy"`
	ValLoss     []float64 `json:"val_loss"`
	ValAccuracy []float64 `json:"val_accuracy"`
}

type HTTP struct {
	url string
	c   *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{url: strings.TrimRight(url, "/"), c: &http.Client{Timeout: timeout}}
}

func (h *HTTP) Predict(ctx context.Context, batch [][][]float64) ([]float64, error) {
	var out PredictResp
	if err := h.post(ctx, "/predict", PredictReq{Sequences: batch}, &out); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(out.Scores) != len(batch) {
		return nil, fmt.Errorf("predict: %d scores for %d sequences", len(out.Scores), len(batch))
	}
	return out.Scores, nil
}

func (h *HTTP) Train(ctx context.Context, req TrainReq) (*History, error) {
	var out History
	if err := h.post(ctx, "/train", req, &out); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	return &out, nil
}

func (h *HTTP) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return fmt.Errorf("health: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health %s: %w", resp.Status, ErrUnavailable)
	}
	return nil
}

func (h *HTTP) post(ctx context.Context, path string, in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %w", resp.Status, strings.TrimSpace(string(body)), ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
