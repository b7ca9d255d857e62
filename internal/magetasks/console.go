package magetasks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console output goes to stderr so the toolchain's stdout stays untouched.
var console io.Writer = os.Stderr

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	infoStyle    = lipgloss.NewStyle().Faint(true)
)

// PrintH1Header prints a top-level header with decoration.
func PrintH1Header(title string) {
	width := 80
	padding := max((width-lipgloss.Width(title))/2, 0)
	rule := strings.Repeat("=", width)
	fmt.Fprintf(console, "\n%s\n%s%s\n%s\n\n", rule, strings.Repeat(" ", padding), headerStyle.Render(title), rule)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Fprintf(console, "\n%s\n\n", headerStyle.Render("=== "+title+" ==="))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Fprintln(console, successStyle.Render("✅ "+msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Fprintln(console, warningStyle.Render("⚠️  "+msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Fprintln(console, errorStyle.Render("❌ "+msg))
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Fprintln(console, infoStyle.Render("ℹ️  "+msg))
}
