package output

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/filerules/pkg/scheduler"
)

const progressTemplate = `{{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "rule"}}`

// IsTerminal reports whether w is attached to a terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Progress shows a bar advancing with every rule of a pass
type Progress struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewProgress creates a bar writing to w. The bar starts on the first update
// so the total is known.
func NewProgress(w io.Writer) *Progress {
	bar := pb.New(0).
		SetTemplateString(progressTemplate).
		SetWriter(w)

	// Detect terminal width to prevent line wrapping issues
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			bar.SetWidth(width)
		}
	}

	return &Progress{bar: bar}
}

// Update advances the bar; it matches scheduler.Config.OnRule
func (p *Progress) Update(update scheduler.RuleProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.bar.IsStarted() {
		p.bar.SetTotal(int64(update.Total))
		p.bar.Start()
	}
	p.bar.Set("rule", update.Rule)
	p.bar.SetCurrent(int64(update.Done))
}

// Finish stops the bar if it was started
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar.IsStarted() {
		p.bar.Finish()
	}
}

// Current returns the number of rules reported done
func (p *Progress) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar.Current()
}
