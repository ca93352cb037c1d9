package cmd

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptOutputPath asks where to save the spreadsheet. An empty answer keeps
// defaultPath.
func promptOutputPath(defaultPath string) (string, error) {
	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Where should the spreadsheet be saved?").
				Description("Leave empty for " + defaultPath + ". A .csv name writes CSV.").
				Placeholder(defaultPath).
				Value(&answer),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return resolveOutputPath(answer, defaultPath), nil
}

func resolveOutputPath(answer, defaultPath string) string {
	if answer = strings.TrimSpace(answer); answer != "" {
		return answer
	}
	return defaultPath
}
