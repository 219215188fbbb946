package site2pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-site2pdf/internal/hints"
	"github.com/alnah/go-site2pdf/internal/process"
)

// Renderer prints a web page to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, url string, opts *PDFOptions) ([]byte, error)
	Close() error
}

// RendererFactory creates a Renderer for one pool slot.
type RendererFactory func() Renderer

var _ Renderer = (*rodRenderer)(nil)

// Navigation timeouts.
const (
	DefaultTimeout = 2 * time.Minute

	// requestIdle is how long the network must stay quiet before printing.
	requestIdle = 500 * time.Millisecond
)

// BrowserOptions selects and configures the Chrome binary.
type BrowserOptions struct {
	Bin       string // empty uses ROD_BROWSER_BIN, then rod's lookup/download
	NoSandbox bool
}

// rodRenderer renders pages with headless Chrome via go-rod.
// The browser is launched on the first Render call.
type rodRenderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	opts     BrowserOptions
}

// newRodRenderer creates a rodRenderer with the given per-page timeout.
func newRodRenderer(timeout time.Duration, opts BrowserOptions) *rodRenderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &rodRenderer{timeout: timeout, opts: opts}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	bin := r.opts.Bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// Chrome's sandbox needs privileges that CI runners and containers lack.
	if r.opts.NoSandbox || os.Getenv("ROD_NO_SANDBOX") == "1" || hints.InCI() || hints.IsInContainer() {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.killLauncher(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return nil
}

// Render navigates to url, waits for the page to settle and prints it.
func (r *rodRenderer) Render(ctx context.Context, url string, opts *PDFOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = DefaultPDFOptions()
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	// A context deadline shorter than the renderer timeout wins.
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	p := page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	waitIdle := p.WaitRequestIdle(requestIdle, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPageLoad, url, err)
	}
	waitIdle()
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPageLoad, url, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := p.PDF(buildPrintOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// Close closes the browser and makes sure no Chrome process outlives it.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.killLauncher(r.launcher)
		r.launcher = nil
	}
	return err
}

// killLauncher terminates the Chrome process tree and removes its profile dir.
// Cleanup blocks until the process exits, so it must run after the kills.
func (r *rodRenderer) killLauncher(l *launcher.Launcher) {
	process.KillProcessGroup(l.PID())
	l.Kill()
	l.Cleanup()
}

// buildPrintOptions converts PDFOptions to Chrome's print parameters.
func buildPrintOptions(opts *PDFOptions) *proto.PagePrintToPDF {
	width, height := opts.paper()
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(opts.MarginTopMM / mmPerInch),
		MarginBottom:    floatPtr(opts.MarginBottomMM / mmPerInch),
		MarginLeft:      floatPtr(opts.MarginLeftMM / mmPerInch),
		MarginRight:     floatPtr(opts.MarginRightMM / mmPerInch),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
