package restore

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

	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
)

const defaultInferenceBaseURL = "https://api.replicate.com"

// Client calls the external image-restoration inference API. The model
// itself lives entirely on the provider side; this client only moves URLs
// and parameters.
type Client struct {
	APIToken string
	BaseURL  string
	Model    string

	HTTPClient *http.Client
}

// Options tunes a restoration or adjustment run.
type Options struct {
	Upscale       int     `json:"upscale,omitempty"`
	FaceEnhance   bool    `json:"face_enhance,omitempty"`
	Colorize      bool    `json:"colorize,omitempty"`
	ScratchRemove bool    `json:"scratch_removal,omitempty"`
	Brightness    float64 `json:"brightness,omitempty"`
	Contrast      float64 `json:"contrast,omitempty"`
}

// Result is the provider's answer for a finished run.
type Result struct {
	OutputURL string
	Status    string
}

func NewClientFromEnv() *Client {
	return &Client{
		APIToken: strings.TrimSpace(env.GetEnv("INFERENCE_API_TOKEN", "")),
		BaseURL:  strings.TrimRight(env.GetEnv("INFERENCE_API_BASE_URL", defaultInferenceBaseURL), "/"),
		Model:    strings.TrimSpace(env.GetEnv("INFERENCE_MODEL", "restoration-v2")),
		HTTPClient: &http.Client{
			// Restoration runs are slow; the platform request budget is the
			// real upper bound, this just keeps a dead provider from eating it.
			Timeout: 90 * time.Second,
		},
	}
}

// Restore submits an image URL for restoration and waits for the output.
func (c *Client) Restore(ctx context.Context, imageURL string, opts Options) (*Result, error) {
	if strings.TrimSpace(c.APIToken) == "" {
		return nil, errors.New("INFERENCE_API_TOKEN is not configured")
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, errors.New("image url is required")
	}

	body := map[string]interface{}{
		"model": c.Model,
		"input": map[string]interface{}{
			"image":           imageURL,
			"upscale":         opts.Upscale,
			"face_enhance":    opts.FaceEnhance,
			"colorize":        opts.Colorize,
			"scratch_removal": opts.ScratchRemove,
			"brightness":      opts.Brightness,
			"contrast":        opts.Contrast,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out struct {
		Status string `json:"status"`
		Output string `json:"output"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference failed: %s", out.Error)
	}
	if strings.TrimSpace(out.Output) == "" {
		return nil, errors.New("inference returned no output image")
	}
	return &Result{OutputURL: out.Output, Status: out.Status}, nil
}
