// Command chatwidget is a terminal front end for QuickShop support chat.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quickshop-support/internal/config"
	"quickshop-support/internal/widget"
)

func main() {
	cfg := config.LoadWidget()

	state, err := widget.OpenBoltState(cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatwidget: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	client := widget.NewClient(cfg.APIURL, cfg.Timeout)
	session := widget.NewSession(client, state)

	p := tea.NewProgram(newModel(session, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatwidget: %v\n", err)
		state.Close()
		os.Exit(1)
	}
}
