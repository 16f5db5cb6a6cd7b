package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/matching"
)

type ruleFields struct {
	pattern    string
	category   string
	incomeType ledger.IncomeType
}

// RulesModel lists the learned category rules and teaches new ones.
type RulesModel struct {
	CommonModel
	matching *matching.Service

	table  table.Model
	form   *huh.Form
	fields *ruleFields
	status string
	err    error
}

func NewRulesModel(svc *matching.Service) RulesModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Pattern", Width: 30},
			{Title: "Category", Width: 22},
			{Title: "Free Zone", Width: 15},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return RulesModel{matching: svc, table: t, fields: &ruleFields{}}
}

func (m RulesModel) Title() string { return "Category Rules" }

func (m RulesModel) ShortHelp() string {
	if m.form != nil {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add rule"
}

func (m RulesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RulesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRulesMsg:
		m.err = msg.err

		rows := make([]table.Row, 0, len(msg.rules))
		for _, r := range msg.rules {
			rows = append(rows, table.Row{r.Pattern, r.Category, incomeTypeLabel(r.IncomeType)})
		}

		m.table.SetRows(rows)

		return m, nil

	case ruleSavedMsg:
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = "Rule saved."

		return m, m.loadCmd()
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			*m.fields = ruleFields{}
			m.form = m.newForm()
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RulesModel) newForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("pattern").
				Title("Description contains").
				Value(&f.pattern),
			huh.NewInput().
				Key("category").
				Title("Category").
				Value(&f.category),
			huh.NewSelect[ledger.IncomeType]().
				Key("income_type").
				Title("Free Zone income (revenue only)").
				Options(
					huh.NewOption("Unclassified", ledger.IncomeUnclassified),
					huh.NewOption("Qualifying", ledger.IncomeQualifying),
					huh.NewOption("Non-qualifying", ledger.IncomeNonQualifying),
				).
				Value(&f.incomeType),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m RulesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m RulesModel) View() string {
	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("New Rule\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.err != nil {
		content = badStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + content
	} else if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type loadRulesMsg struct {
	rules []matching.Rule
	err   error
}

func (m RulesModel) loadCmd() tea.Cmd {
	svc := m.matching

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		rules, err := svc.Rules(ctx)

		return loadRulesMsg{rules: rules, err: err}
	}
}

type ruleSavedMsg struct {
	err error
}

func (m RulesModel) saveCmd() tea.Cmd {
	f := *m.fields
	svc := m.matching

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		return ruleSavedMsg{err: svc.Learn(ctx, matching.Rule{
			Pattern:    f.pattern,
			Category:   f.category,
			IncomeType: f.incomeType,
		})}
	}
}
