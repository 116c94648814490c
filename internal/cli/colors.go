package cli

import "github.com/charmbracelet/lipgloss"

// Tide colour palette 🌊
// Shared theme colours for consistent branding across CLI and TUI
var (
	// Core tide colours (deep to bright)
	TideCyan = lipgloss.Color("#00CED1") // Bright cyan
	TideTeal = lipgloss.Color("#008B8B") // Deep teal
	TideBlue = lipgloss.Color("#1E90FF") // Clear blue
	TideNavy = lipgloss.Color("#191970") // Midnight navy

	// Accent colours
	SeafoamGray = lipgloss.Color("#5F9EA0") // Cadet blue for subtle text
)
