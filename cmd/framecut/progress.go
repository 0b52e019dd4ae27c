package main

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"framecut/internal/media"
)

// progressPrinter renders preparation progress for the task the user is
// waiting on. Background prefetch events are dropped so the terminal stays
// quiet.
type progressPrinter struct {
	mu      sync.Mutex
	enabled bool
	path    string
	bar     *progressbar.ProgressBar
}

func newProgressPrinter(out *os.File) *progressPrinter {
	enabled := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	return &progressPrinter{enabled: enabled}
}

// focus starts rendering events for path under the given label.
func (p *progressPrinter) focus(path, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.path = path
	p.bar = progressbar.NewOptions(100,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

// blur stops rendering and clears the bar.
func (p *progressPrinter) blur() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
	p.path = ""
}

// handle is the media progress callback.
func (p *progressPrinter) handle(event media.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil || event.Path != p.path {
		return
	}
	p.bar.Describe(event.Message)
	_ = p.bar.Set(int(event.PercentComplete))
}
