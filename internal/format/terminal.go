package format

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// codeColors maps colour codes to the 16 standard terminal colours.
var codeColors = map[byte]lipgloss.Color{
	'0': "0",
	'1': "4",
	'2': "2",
	'3': "6",
	'4': "1",
	'5': "5",
	'6': "3",
	'7': "7",
	'8': "8",
	'9': "12",
	'a': "10",
	'b': "14",
	'c': "9",
	'd': "13",
	'e': "11",
	'f': "15",
}

// Terminal renders styled text for a terminal. The colour profile is detected
// from the writer unless ForceColor is called.
type Terminal struct {
	renderer *lipgloss.Renderer
}

// NewTerminal creates a terminal renderer for w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{renderer: lipgloss.NewRenderer(w)}
}

// ForceColor emits ANSI colours even when the writer is not a terminal.
func (t *Terminal) ForceColor() {
	t.renderer.SetColorProfile(termenv.ANSI)
}

// Render replaces the style codes in s with terminal styling. A colour code
// clears any active formatting, as it does in game.
func (t *Terminal) Render(s string, prefix rune) string {
	var out, text strings.Builder
	style := t.base()
	flush := func() {
		if text.Len() == 0 {
			return
		}
		lines := strings.Split(text.String(), "\n")
		for i, line := range lines {
			if i > 0 {
				out.WriteByte('\n')
			}
			if line != "" {
				out.WriteString(style.Render(line))
			}
		}
		text.Reset()
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == prefix && i+1 < len(runes) && runes[i+1] < 128 && isCodeChar(byte(runes[i+1])) {
			flush()
			style = t.apply(style, byte(runes[i+1]))
			i++
			continue
		}
		text.WriteRune(runes[i])
	}
	flush()
	return out.String()
}

func (t *Terminal) base() lipgloss.Style {
	return t.renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
}

func (t *Terminal) apply(style lipgloss.Style, c byte) lipgloss.Style {
	if color, ok := codeColors[c]; ok {
		return t.base().Foreground(color)
	}
	switch c {
	case 'k':
		return style.Blink(true)
	case 'l':
		return style.Bold(true)
	case 'm':
		return style.Strikethrough(true)
	case 'n':
		return style.Underline(true)
	case 'o':
		return style.Italic(true)
	}
	return t.base()
}
