// Package style holds the colours and glyphs shared by every terminal renderer.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Muted  = lipgloss.Color("#6B7280")
	Green  = lipgloss.Color("#16A34A")
	Red    = lipgloss.Color("#DC2626")
	Yellow = lipgloss.Color("#D97706")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Bullet  = "•"
)

// Heading renders section titles of plan and argument listings.
func Heading(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Bold(true).Foreground(Accent)
}

// Label renders field names.
func Label(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(Muted)
}

// Node renders node names.
func Node(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Bold(true)
}

// Success renders confirmations.
func Success(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(Green)
}
