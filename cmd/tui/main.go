package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/taxdesk/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/taxdesk/internal/app"
	"github.com/MrJamesThe3rd/taxdesk/internal/config"
)

type model struct {
	app *app.App

	currentView View

	dashboardView view.DashboardModel
	ledgerView    view.LedgerModel
	citView       view.CITModel
	vatView       view.VATModel
	importView    view.ImportModel
	rulesView     view.RulesModel
	setupView     view.SetupModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewLedger    View = 2
	ViewCIT       View = 3
	ViewVAT       View = 4
	ViewImport    View = 5
	ViewRules     View = 6
	ViewSetup     View = 7
)

func initialModel(a *app.App) model {
	return model{
		app:           a,
		currentView:   ViewMenu,
		dashboardView: view.NewDashboardModel(a.Finance, a.Profiles),
		ledgerView:    view.NewLedgerModel(a.Finance),
		citView:       view.NewCITModel(a.Finance),
		vatView:       view.NewVATModel(a.Finance),
		importView:    view.NewImportModel(a.Finance, a.Importer),
		rulesView:     view.NewRulesModel(a.Matching),
		setupView:     view.NewSetupModel(a.Profiles),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.app.Finance, m.app.Profiles)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewLedger
				m.ledgerView = view.NewLedgerModel(m.app.Finance)

				return m, m.ledgerView.Init()
			case "3":
				m.currentView = ViewCIT
				m.citView = view.NewCITModel(m.app.Finance)

				return m, m.citView.Init()
			case "4":
				m.currentView = ViewVAT
				m.vatView = view.NewVATModel(m.app.Finance)

				return m, m.vatView.Init()
			case "5":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.app.Finance, m.app.Importer)

				return m, m.importView.Init()
			case "6":
				m.currentView = ViewRules
				m.rulesView = view.NewRulesModel(m.app.Matching)

				return m, m.rulesView.Init()
			case "7":
				m.currentView = ViewSetup
				m.setupView = view.NewSetupModel(m.app.Profiles)

				return m, m.setupView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewCIT:
		var newModel tea.Model
		newModel, cmd = m.citView.Update(msg)
		m.citView = newModel.(view.CITModel)
	case ViewVAT:
		var newModel tea.Model
		newModel, cmd = m.vatView.Update(msg)
		m.vatView = newModel.(view.VATModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewRules:
		var newModel tea.Model
		newModel, cmd = m.rulesView.Update(msg)
		m.rulesView = newModel.(view.RulesModel)
	case ViewSetup:
		var newModel tea.Model
		newModel, cmd = m.setupView.Update(msg)
		m.setupView = newModel.(view.SetupModel)
	}

	return m, cmd
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return m.menu()
	case ViewDashboard:
		current = m.dashboardView
	case ViewLedger:
		current = m.ledgerView
	case ViewCIT:
		current = m.citView
	case ViewVAT:
		current = m.vatView
	case ViewImport:
		current = m.importView
	case ViewRules:
		current = m.rulesView
	case ViewSetup:
		current = m.setupView
	default:
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 2, 0).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).Padding(0, 2).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func (m model) menu() string {
	summary := m.app.Finance.Summary()

	return lipgloss.NewStyle().Padding(2).Render(
		fmt.Sprintf("%s\n", m.app.Config.App.Name) +
			lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf(
				"Net income AED %s across %d entries",
				view.FormatAmount(summary.NetIncome),
				summary.RevenueCount+summary.ExpenseCount,
			)) + "\n\n" +
			"1. Dashboard\n" +
			"2. Ledger\n" +
			"3. Corporate Tax\n" +
			"4. VAT Return\n" +
			"5. Import Statement\n" +
			"6. Category Rules\n" +
			"7. Company Setup\n\n" +
			"q. Quit",
	)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the TUI; library logs would corrupt the screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if path := os.Getenv("TAXDESK_LOG_FILE"); path != "" {
		f, err := tea.LogToFile(path, "taxdesk")
		if err != nil {
			slog.Error("failed to open log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()

		logger = slog.New(slog.NewTextHandler(f, nil))
	}

	slog.SetDefault(logger)

	ctx := context.Background()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())

	unsubscribe := a.Finance.Subscribe(func() {
		p.Send(view.LedgerChangedMsg{})
	})

	_, runErr := p.Run()

	unsubscribe()

	closeCtx, cancel := context.WithTimeout(ctx, cfg.Storage.FlushWait)
	defer cancel()

	if err := a.Close(closeCtx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save ledger: %v\n", err)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "failed to run TUI: %v\n", runErr)
		os.Exit(1)
	}
}
