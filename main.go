package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	theme := flag.String("theme", "", "Rendering theme: auto, light, or dark (default from config)")
	dataPath := flag.String("data", "", "Path to the local data store (default under the user config dir)")
	userID := flag.String("user", "", "Operator id for preferences and telemetry")
	form := flag.String("form", "", "Form to open on startup")
	flag.Parse()

	m, err := newModel(modelOptions{
		dataPath:    *dataPath,
		theme:       *theme,
		userID:      *userID,
		initialForm: *form,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer m.store.Close()

	if _, err := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
