package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// LedgerChangedMsg is sent to the program whenever the ledger commits a change.
type LedgerChangedMsg struct{}
