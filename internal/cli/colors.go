package cli

import "github.com/charmbracelet/lipgloss"

// Jet colour palette
// Shared colours for consistent branding across CLI and TUI
var (
	// Core jet colours (cold to hot)
	JetBlue   = lipgloss.Color("#0055FF") // Cold end
	JetCyan   = lipgloss.Color("#00D4FF") // Cyan
	JetYellow = lipgloss.Color("#FFD500") // Warm yellow
	JetRed    = lipgloss.Color("#FF2A00") // Hot end

	// Accent colours
	SlateGray = lipgloss.Color("#708090") // Subtle text
)
