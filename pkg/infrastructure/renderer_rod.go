package infrastructure

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"resume-builder/pkg/encoder"
)

// RodRasterizer captures full-page PNG screenshots with go-rod. Each call
// launches (or connects to) its own browser and closes it afterwards.
type RodRasterizer struct {
	opts RasterOptions
}

func NewRodRasterizer(opts RasterOptions) *RodRasterizer {
	return &RodRasterizer{opts: opts}
}

func (r *RodRasterizer) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := r.opts.WSURL
	cleanup := func() {}
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(true).NoSandbox(true)
		if r.opts.ChromePath != "" {
			l = l.Bin(r.opts.ChromePath)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launching browser: %w", err)
		}
		controlURL = u
		cleanup = func() {
			l.Kill()
			l.Cleanup()
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, func() {
		_ = browser.Close()
		cleanup()
	}, nil
}

func (r *RodRasterizer) Rasterize(ctx context.Context, html string, vp encoder.Viewport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.timeout())
	defer cancel()

	browser, release, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	height := vp.Height
	if height <= 0 {
		height = encoder.A4.HeightPx(vp.Width)
	}
	scale := vp.Scale
	if scale <= 0 {
		scale = 1
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            height,
		DeviceScaleFactor: scale,
	})
	if err != nil {
		return nil, fmt.Errorf("setting viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for page: %w", err)
	}

	buf, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("rod screenshot: %w", err)
	}
	return buf, nil
}
