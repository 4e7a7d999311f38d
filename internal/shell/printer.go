package shell

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/instaplanner/internal/notify"
)

var (
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	titleStyle       = lipgloss.NewStyle().Bold(true)
	destructiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Printer serializes everything written to the terminal. It doubles as the
// notifier, so toasts raised by background writes do not interleave with
// command output.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Notify(n notify.Notification) {
	style := titleStyle
	if n.Variant == notify.VariantDestructive {
		style = destructiveStyle
	}
	p.Println(style.Render(n.Title) + " " + dimStyle.Render(n.Description))
}

func (p *Printer) Println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *Printer) Printf(format string, args ...any) {
	p.Println(outputStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Prompt(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, promptStyle.Render(s))
}

var _ notify.Notifier = (*Printer)(nil)
