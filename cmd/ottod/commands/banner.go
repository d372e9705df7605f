package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	taglineStyle = lipgloss.NewStyle().Faint(true)
)

// displayBanner prints the daemon name and version before startup logging.
func displayBanner(version string) {
	fmt.Println()
	fmt.Println(bannerStyle.Render(` ░█▀█░▀█▀░▀█▀░█▀█
 ░█░█░░█░░░█░░█░█
 ░▀▀▀░░▀░░░▀░░▀▀▀`))
	fmt.Println(taglineStyle.Render(fmt.Sprintf(" otto v%s - intent-based SDN state layer", version)))
	fmt.Println()
}
