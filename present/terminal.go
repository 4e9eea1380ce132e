package present

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/frame"
)

// DefaultColumns is the render width used when the output is not a terminal.
const DefaultColumns = 80

const (
	upperHalf = "▀"
	lowerHalf = "▄"
)

// Terminal draws frames with half-block glyphs, two pixel rows per text
// line, scaled down to fit the terminal width.
type Terminal struct {
	out      io.Writer
	errOut   io.Writer
	renderer *lipgloss.Renderer
	errStyle lipgloss.Style

	// Columns overrides the detected width when non-zero.
	Columns int
}

var _ Sink = (*Terminal)(nil)

func NewTerminal(out io.Writer) *Terminal {
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out:      out,
		errOut:   out,
		renderer: r,
		errStyle: errorStyle(r),
	}
}

// SetErrorOutput sends failure messages to w instead of the frame output.
func (t *Terminal) SetErrorOutput(w io.Writer) {
	t.errOut = w
	t.errStyle = errorStyle(lipgloss.NewRenderer(w))
}

func errorStyle(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
}

func (t *Terminal) Present(_ context.Context, f *frame.Frame) error {
	_, err := io.WriteString(t.out, Render(f, t.columns(), t.renderer)+"\n")
	return err
}

func (t *Terminal) Fail(_ context.Context, err error) {
	fmt.Fprintln(t.errOut, t.errStyle.Render(errors.UserMessage(err)))
}

func (t *Terminal) columns() int {
	if t.Columns > 0 {
		return t.Columns
	}
	if f, ok := t.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return DefaultColumns
}

// Render draws f at most cols characters wide. Pixels with alpha below 128
// are left blank. The renderer decides how much color survives.
func Render(f *frame.Frame, cols int, r *lipgloss.Renderer) string {
	if f == nil || f.Width == 0 || f.Height == 0 {
		return ""
	}
	if cols <= 0 {
		cols = DefaultColumns
	}
	outW := int(f.Width)
	if outW > cols {
		outW = cols
	}
	// Keep the aspect ratio; each output row is one pixel row here and
	// half a text line below.
	outH := int((uint64(f.Height)*uint64(outW) + uint64(f.Width) - 1) / uint64(f.Width))

	sample := func(x, y int) (lipgloss.Color, bool) {
		sx := uint32(uint64(x) * uint64(f.Width) / uint64(outW))
		sy := uint32(uint64(y) * uint64(f.Height) / uint64(outH))
		c := f.At(sx, sy)
		if c.A < 128 {
			return "", false
		}
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), true
	}

	styles := make(map[[2]lipgloss.Color]lipgloss.Style)
	cell := func(fg, bg lipgloss.Color, glyph string) string {
		key := [2]lipgloss.Color{fg, bg}
		st, ok := styles[key]
		if !ok {
			st = r.NewStyle().Foreground(fg)
			if bg != "" {
				st = st.Background(bg)
			}
			styles[key] = st
		}
		return st.Render(glyph)
	}

	var b strings.Builder
	for y := 0; y < outH; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < outW; x++ {
			top, topOK := sample(x, y)
			var bottom lipgloss.Color
			bottomOK := false
			if y+1 < outH {
				bottom, bottomOK = sample(x, y+1)
			}
			switch {
			case topOK:
				b.WriteString(cell(top, bottom, upperHalf))
			case bottomOK:
				b.WriteString(cell(bottom, "", lowerHalf))
			default:
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
