package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"resume-builder/pkg/encoder"
)

// RasterOptions configures a headless browser rasterizer. WSURL selects a
// running browser; otherwise one is started from ChromePath (or PATH).
type RasterOptions struct {
	ChromePath string
	WSURL      string
	Timeout    time.Duration
}

func (o RasterOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 60 * time.Second
}

// ChromedpRasterizer captures full-page PNG screenshots with chromedp.
type ChromedpRasterizer struct {
	opts RasterOptions
}

func NewChromedpRasterizer(opts RasterOptions) *ChromedpRasterizer {
	return &ChromedpRasterizer{opts: opts}
}

func (r *ChromedpRasterizer) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.WSURL != "" {
		return chromedp.NewRemoteAllocator(ctx, r.opts.WSURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if r.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ChromePath))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

// Rasterize loads html in a fresh browser context sized to vp and returns
// the whole page as PNG. The browser context and its temp dir are released
// before returning.
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, html string, vp encoder.Viewport) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.timeout())
	defer cancel()

	allocCtx, cancelAlloc := r.allocator(ctx)
	defer cancelAlloc()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	tmpDir, err := os.MkdirTemp("", "resume-raster-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("writing page: %w", err)
	}

	height := vp.Height
	if height <= 0 {
		height = encoder.A4.HeightPx(vp.Width)
	}
	scale := vp.Scale
	if scale <= 0 {
		scale = 1
	}

	var buf []byte
	err = chromedp.Run(cctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDeviceMetricsOverride(int64(vp.Width), int64(height), scale, false).Do(ctx)
		}),
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp screenshot: %w", err)
	}
	return buf, nil
}
