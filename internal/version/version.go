// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP server with websocket resolve progress, Prometheus metrics, tracing
// 0.2.0 - Mosaic grids, off-axis fields, coordinate lists, telescope presets
// 0.1.0 - Initial release: target resolution, night and year visibility, TUI planner
