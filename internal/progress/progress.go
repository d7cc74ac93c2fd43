package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter receives progress updates while the corpus is embedded.
// Add may be called from several goroutines.
type Reporter interface {
	Start(total int)
	Add(n int)
	Finish()
}

// Bar renders a terminal progress bar.
type Bar struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

// NewBar returns a Reporter writing to stderr, or nil when stderr is not a
// terminal or enabled is false. Callers treat a nil Reporter as a no-op.
func NewBar(enabled bool, desc string) Reporter {
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return &Bar{w: os.Stderr, desc: desc}
}

func (p *Bar) Start(total int) {
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(p.desc),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *Bar) Add(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *Bar) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
