package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides HTTP access to a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client for the daemon listening at bind, which may
// be a bare host:port or a full URL.
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 15 * time.Minute},
	}
}

// SubmitRequest carries the fields of one publish submission.
type SubmitRequest struct {
	Account     string
	Video       io.Reader
	VideoName   string
	Description string
	Hashtags    string
	SoundID     string
	MixMode     string
	Schedule    string
	// Headless, when non-empty, overrides the daemon's configured browser
	// visibility ("true" or "false").
	Headless string
}

// Submit uploads a clip and blocks until the publish attempt finishes.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	body, contentType, err := encodeSubmitForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	var resp SubmitResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon's runtime status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, err
	}
	var resp StatusResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs retrieves finished jobs, newest first. A limit of zero means the
// server default.
func (c *Client) Jobs(ctx context.Context, limit int) (*JobsResponse, error) {
	endpoint := c.baseURL + "/api/jobs"
	if limit > 0 {
		endpoint += "?limit=" + url.QueryEscape(strconv.Itoa(limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var resp JobsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks daemon liveness.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	var resp HealthResponse
	return c.do(req, &resp)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Class)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeSubmitForm(req SubmitRequest) (io.Reader, string, error) {
	if req.Video == nil {
		return nil, "", fmt.Errorf("submit: video reader is required")
	}
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	fields := map[string]string{
		"account":     req.Account,
		"description": req.Description,
		"hashtags":    req.Hashtags,
		"sound_id":    req.SoundID,
		"mix_mode":    req.MixMode,
		"schedule":    req.Schedule,
		"headless":    req.Headless,
	}
	name := req.VideoName
	if name == "" {
		name = "clip.mp4"
	}

	go func() {
		var err error
		defer func() { pipeWriter.CloseWithError(err) }()
		for field, value := range fields {
			if value == "" {
				continue
			}
			if err = writer.WriteField(field, value); err != nil {
				return
			}
		}
		var part io.Writer
		part, err = writer.CreateFormFile("video", name)
		if err != nil {
			return
		}
		if _, err = io.Copy(part, req.Video); err != nil {
			return
		}
		err = writer.Close()
	}()

	return pipeReader, writer.FormDataContentType(), nil
}
