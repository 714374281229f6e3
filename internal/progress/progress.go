package progress

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Display renders one counting bar per pipeline phase.
type Display struct {
	p *mpb.Progress
}

// New creates a Display writing to out.
func New(out io.Writer) *Display {
	return &Display{
		p: mpb.New(mpb.WithOutput(out), mpb.WithWidth(64)),
	}
}

// NewDiscard creates a Display that renders nothing. Used in tests and
// when the output is not a terminal.
func NewDiscard() *Display {
	return New(io.Discard)
}

// Bar starts a phase bar counting up to total tasks.
func (d *Display) Bar(name string, total int) *Bar {
	barStyle := mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]")

	bar := d.p.New(int64(total),
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	// An empty phase completes immediately; otherwise Wait would block
	// on a bar that never fills.
	if total == 0 {
		bar.SetTotal(0, true)
	}

	return &Bar{bar: bar}
}

// Wait blocks until every bar has completed or aborted.
func (d *Display) Wait() {
	d.p.Wait()
}

// Bar tracks one phase's task completions.
type Bar struct {
	bar *mpb.Bar
}

// Increment records one completed task.
func (b *Bar) Increment() {
	b.bar.Increment()
}

// Abort drops the bar, for phases cut short by cancellation.
func (b *Bar) Abort() {
	b.bar.Abort(true)
}
