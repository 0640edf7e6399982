// Package tikdriver drives an isolated Chromium instance through TikTok's
// upload flow. The page interaction is deliberately thin: the pipeline treats
// this collaborator as a black box with a call contract (clip, description,
// cookies in; success or failure out), and everything here can change with
// the site without touching the orchestrator.
package tikdriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"clippub/internal/credentials"
	"clippub/internal/logging"
)

// Options carries process-level driver configuration.
type Options struct {
	// BrowserBinary overrides launcher discovery when set.
	BrowserBinary string
	// UploadURL is the page the driver navigates to for publishing.
	UploadURL string
}

// Request describes one publish attempt. ProfileDir must be exclusively owned
// by the calling session so no two jobs ever share browser state.
type Request struct {
	ClipPath    string
	Description string
	Cookies     []credentials.Cookie
	ProfileDir  string
	Headless    bool
}

// Selectors for the upload flow. Kept together because they are the part that
// rots when the site changes.
const (
	fileInputSelector   = `input[type="file"]`
	captionSelector     = `div[contenteditable="true"]`
	postButtonSelector  = `button[data-e2e="post_video_button"]`
	successSelector     = `div[data-e2e="upload_success"]`
	uploadErrorSelector = `div[data-e2e="upload_error"]`
)

const confirmPollInterval = 2 * time.Second

// Driver performs the publish click-sequence.
type Driver struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a driver.
func New(opts Options, logger *slog.Logger) *Driver {
	return &Driver{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "tikdriver"),
	}
}

// Publish launches a browser bound to the request's profile directory, signs
// in via cookies, uploads the clip, and waits for the site to confirm. The
// context deadline bounds the whole session.
func (d *Driver) Publish(ctx context.Context, req Request) error {
	logger := logging.WithContext(ctx, d.logger)

	if req.ClipPath == "" {
		return errors.New("publish: clip path is required")
	}
	if req.ProfileDir == "" {
		return errors.New("publish: profile directory is required")
	}

	controlURL, err := d.launch(req)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("browser close failed", logging.Error(err))
		}
	}()

	if err := browser.SetCookies(cookieParams(req.Cookies)); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: d.opts.UploadURL})
	if err != nil {
		return fmt.Errorf("open upload page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load upload page: %w", err)
	}

	fileInput, err := page.Element(fileInputSelector)
	if err != nil {
		return fmt.Errorf("find file input: %w", err)
	}
	if err := fileInput.SetFiles([]string{req.ClipPath}); err != nil {
		return fmt.Errorf("attach clip: %w", err)
	}
	logger.Debug("clip attached", logging.String("clip", req.ClipPath))

	if req.Description != "" {
		caption, err := page.Element(captionSelector)
		if err != nil {
			return fmt.Errorf("find caption field: %w", err)
		}
		if err := caption.Input(req.Description); err != nil {
			return fmt.Errorf("enter description: %w", err)
		}
	}

	post, err := page.Element(postButtonSelector)
	if err != nil {
		return fmt.Errorf("find post button: %w", err)
	}
	if err := post.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click post: %w", err)
	}

	if err := waitForConfirmation(ctx, page); err != nil {
		return err
	}
	logger.Info("publish confirmed")
	return nil
}

// launch configures the hardened Chromium launch the upload flow needs. The
// per-session user-data dir keeps automation state out of any shared profile.
func (d *Driver) launch(req Request) (string, error) {
	launch := launcher.New().
		Headless(req.Headless).
		UserDataDir(req.ProfileDir).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled")
	if d.opts.BrowserBinary != "" {
		launch = launch.Bin(d.opts.BrowserBinary)
	}
	return launch.Launch()
}

func cookieParams(cookies []credentials.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, cookie := range cookies {
		param := &proto.NetworkCookieParam{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: cookie.Domain,
			Path:   cookie.Path,
			Secure: cookie.Secure,
		}
		if !cookie.Expires.IsZero() {
			param.Expires = proto.TimeSinceEpoch(float64(cookie.Expires.Unix()))
		}
		params = append(params, param)
	}
	return params
}

// waitForConfirmation polls until the site shows either its success or error
// marker, or the context deadline expires.
func waitForConfirmation(ctx context.Context, page *rod.Page) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		if has, _, err := page.Has(uploadErrorSelector); err == nil && has {
			return errors.New("site reported upload error")
		}
		if has, _, err := page.Has(successSelector); err == nil && has {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for upload confirmation: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
