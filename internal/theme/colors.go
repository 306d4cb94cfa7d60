package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "99" // Purple - app name, titles
	ColorSecondary Color = "86" // Cyan - subtitles
)

// Connection state colors
const (
	ColorConnected    Color = "2"   // Green - realtime channel up
	ColorConnecting   Color = "3"   // Yellow - handshake in progress
	ColorDegraded     Color = "214" // Orange - stateless fallback only
	ColorDisconnected Color = "1"   // Red - no usable channel
)

// UI semantic colors
const (
	ColorError     Color = "196" // Bright red
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorNormal    Color = "250" // Default text
	ColorSubtle    Color = "245" // Light gray - labels
	ColorVersion   Color = "240" // Dark gray
)

// Accent colors
const (
	ColorSpinner   Color = "205" // Pink
	ColorTableHead Color = "141" // Purple
)
