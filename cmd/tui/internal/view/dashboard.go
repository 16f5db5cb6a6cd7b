package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

var (
	labelStyle   = lipgloss.NewStyle().Width(28)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DashboardModel shows the live financial summary. It re-reads the finance
// service every time the ledger changes.
type DashboardModel struct {
	CommonModel
	finance  *finance.Service
	profiles profile.Provider

	summary     aggregate.Summary
	ratios      aggregate.Ratios
	breakdown   finance.Breakdown
	deMinimis   tax.DeMinimisResult
	isQFZP      bool
	lastUpdated time.Time
	err         error
}

func NewDashboardModel(svc *finance.Service, profiles profile.Provider) DashboardModel {
	m := DashboardModel{finance: svc, profiles: profiles}
	m.refresh()

	return m
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LedgerChangedMsg:
		m.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.refresh()
		}
	}

	return m, nil
}

func (m *DashboardModel) refresh() {
	m.summary = m.finance.Summary()
	m.ratios = m.finance.Ratios()
	m.breakdown = m.finance.Breakdown()
	m.deMinimis = m.finance.EvaluateDeMinimis()
	m.lastUpdated = m.finance.LastUpdated()

	ctx, cancel := StoreCtx()
	defer cancel()

	p, err := m.profiles.Profile(ctx)
	m.err = err
	m.isQFZP = err == nil && p.IsQFZP
}

func (m DashboardModel) View() string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	b.WriteString(headingStyle.Render("Summary") + "\n")
	row("Total revenue", FormatAmount(m.summary.TotalRevenue))
	row("Total expenses", FormatAmount(m.summary.TotalExpenses))
	row("Net income", FormatAmount(m.summary.NetIncome))
	row("Entries", fmt.Sprintf("%d revenue, %d expenses", m.summary.RevenueCount, m.summary.ExpenseCount))
	row("Profit margin", FormatPercent(m.ratios.ProfitMarginPercent))
	row("Expense ratio", FormatPercent(m.ratios.ExpenseRatioPercent))

	b.WriteString("\n" + headingStyle.Render("Free Zone income") + "\n")
	row("Qualifying", FormatAmount(m.summary.QualifyingIncome))
	row("Non-qualifying", FormatAmount(m.summary.NonQualifyingIncome))
	row("Unclassified", FormatAmount(m.summary.UnclassifiedIncome))
	row("Qualifying share", FormatPercent(m.ratios.QualifyingSharePercent))

	if m.isQFZP {
		b.WriteString("\n" + headingStyle.Render("De Minimis") + "\n")
		row("Non-qualifying revenue", FormatAmount(m.deMinimis.NonQualifyingAmount))
		row("Share of revenue", FormatPercent(m.deMinimis.NonQualifyingPercentage))

		if m.deMinimis.IsCompliant {
			row("Status", okStyle.Render("within limits"))
		} else {
			row("Status", badStyle.Render("limit exceeded, QFZP status at risk"))
		}
	}

	if len(m.breakdown.Revenue) > 0 || len(m.breakdown.Expenses) > 0 {
		b.WriteString("\n" + headingStyle.Render("By category") + "\n")

		for _, c := range m.breakdown.Revenue {
			row("+ "+c.Category, FormatAmount(c.Amount))
		}

		for _, c := range m.breakdown.Expenses {
			row("- "+c.Category, FormatAmount(c.Amount))
		}
	}

	if m.err != nil {
		b.WriteString("\n" + badStyle.Render(fmt.Sprintf("Profile unavailable: %v", m.err)) + "\n")
	}

	if !m.lastUpdated.IsZero() {
		b.WriteString("\n" + lipgloss.NewStyle().Faint(true).Render("Updated "+m.lastUpdated.Format(time.Kitchen)))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
