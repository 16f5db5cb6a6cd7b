package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

type ledgerState int

const (
	ledgerStateBrowse ledgerState = iota
	ledgerStateForm
)

// entryFields backs the add/edit form. It lives behind a pointer so the
// bindings survive the model being copied by Update.
type entryFields struct {
	editID      string
	date        string
	amount      string
	description string
	category    string
	vendor      string
	incomeType  ledger.IncomeType
}

type LedgerModel struct {
	CommonModel
	finance *finance.Service
	now     func() time.Time

	kind      ledger.EntryKind
	state     ledgerState
	timeframe Timeframe
	table     table.Model
	form      *huh.Form
	fields    *entryFields

	revenues []ledger.RevenueEntry
	expenses []ledger.ExpenseEntry
	status   string
}

func NewLedgerModel(svc *finance.Service) LedgerModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := LedgerModel{
		finance: svc,
		now:     time.Now,
		kind:    ledger.KindRevenue,
		table:   t,
		fields:  &entryFields{},
	}
	m.reload()

	return m
}

func (m LedgerModel) Title() string { return "Ledger" }

func (m LedgerModel) ShortHelp() string {
	if m.state == ledgerStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Tab: revenue/expenses | a: add | e: edit | x: delete | t: timeframe"
}

func (m LedgerModel) Init() tea.Cmd {
	return nil
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LedgerChangedMsg:
		m.reload()
		return m, nil

	case ledgerSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = msg.status
		}

		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()
		m.reload()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case ledgerStateBrowse:
		return m.updateBrowse(msg)
	case ledgerStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m LedgerModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "tab":
			if m.kind == ledger.KindRevenue {
				m.kind = ledger.KindExpense
			} else {
				m.kind = ledger.KindRevenue
			}

			m.status = ""
			m.reload()

			return m, nil
		case "t":
			m.timeframe = m.timeframe.Next()
			m.reload()

			return m, nil
		case "a":
			*m.fields = entryFields{date: FormatDate(m.now())}
			return m.enterForm()
		case "e":
			if !m.loadSelected() {
				return m, nil
			}

			return m.enterForm()
		case "x":
			return m, m.deleteCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *LedgerModel) loadSelected() bool {
	idx := m.table.Cursor()

	if m.kind == ledger.KindRevenue {
		if idx < 0 || idx >= len(m.revenues) {
			return false
		}

		e := m.revenues[idx]
		*m.fields = entryFields{
			editID:      e.ID,
			date:        FormatDate(e.Date),
			amount:      e.Amount.String(),
			description: e.Description,
			category:    e.Category,
			incomeType:  e.IncomeType,
		}

		return true
	}

	if idx < 0 || idx >= len(m.expenses) {
		return false
	}

	e := m.expenses[idx]
	*m.fields = entryFields{
		editID:      e.ID,
		date:        FormatDate(e.Date),
		amount:      e.Amount.String(),
		description: e.Description,
		category:    e.Category,
		vendor:      e.Vendor,
	}

	return true
}

func (m LedgerModel) enterForm() (tea.Model, tea.Cmd) {
	f := m.fields

	fields := []huh.Field{
		huh.NewInput().
			Key("date").
			Title("Date").
			Placeholder("YYYY-MM-DD").
			Value(&f.date).
			Validate(func(s string) error {
				_, err := ParseDate(s)
				return err
			}),

		huh.NewInput().
			Key("amount").
			Title("Amount (AED)").
			Value(&f.amount).
			Validate(func(s string) error {
				_, err := ParseAmount(s)
				return err
			}),

		huh.NewInput().
			Key("description").
			Title("Description").
			Value(&f.description),
	}

	if m.kind == ledger.KindRevenue {
		fields = append(fields,
			huh.NewInput().
				Key("category").
				Title("Category").
				Value(&f.category),

			huh.NewSelect[ledger.IncomeType]().
				Key("income_type").
				Title("Free Zone income").
				Options(
					huh.NewOption("Unclassified", ledger.IncomeUnclassified),
					huh.NewOption("Qualifying", ledger.IncomeQualifying),
					huh.NewOption("Non-qualifying", ledger.IncomeNonQualifying),
				).
				Value(&f.incomeType),
		)
	} else {
		fields = append(fields,
			huh.NewInput().
				Key("category").
				Title("Category").
				Value(&f.category).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("category cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Key("vendor").
				Title("Vendor").
				Value(&f.vendor),
		)
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(45).WithShowHelp(false)
	m.state = ledgerStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m LedgerModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = ledgerStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
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

func (m LedgerModel) View() string {
	kindLabel := "Revenue"
	if m.kind == ledger.KindExpense {
		kindLabel = "Expenses"
	}

	header := fmt.Sprintf(
		"[Tab] %s | [t] Timeframe: %s",
		activeStyle(kindLabel),
		activeStyle(m.timeframe.String()),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == ledgerStateForm && m.form != nil {
		title := "Add " + strings.TrimSuffix(kindLabel, "s")
		if m.fields.editID != "" {
			title = "Edit " + strings.TrimSuffix(kindLabel, "s")
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// reload reads the ledger again and rebuilds the table for the current kind
// and timeframe.
func (m *LedgerModel) reload() {
	now := m.now()

	m.revenues = nil
	for _, e := range m.finance.Revenues() {
		if m.timeframe.Contains(now, e.Date) {
			m.revenues = append(m.revenues, e)
		}
	}

	m.expenses = nil
	for _, e := range m.finance.Expenses() {
		if m.timeframe.Contains(now, e.Date) {
			m.expenses = append(m.expenses, e)
		}
	}

	var rows []table.Row

	if m.kind == ledger.KindRevenue {
		m.table.SetRows(nil)
		m.table.SetColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Amount", Width: 14},
			{Title: "Description", Width: 36},
			{Title: "Category", Width: 18},
			{Title: "Free Zone", Width: 15},
		})

		for _, e := range m.revenues {
			rows = append(rows, table.Row{
				FormatDate(e.Date),
				FormatAmount(e.Amount),
				e.Description,
				e.Category,
				incomeTypeLabel(e.IncomeType),
			})
		}
	} else {
		m.table.SetRows(nil)
		m.table.SetColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Amount", Width: 14},
			{Title: "Category", Width: 18},
			{Title: "Description", Width: 30},
			{Title: "Vendor", Width: 20},
		})

		for _, e := range m.expenses {
			rows = append(rows, table.Row{
				FormatDate(e.Date),
				FormatAmount(e.Amount),
				e.Category,
				e.Description,
				e.Vendor,
			})
		}
	}

	m.table.SetRows(rows)
}

func incomeTypeLabel(t ledger.IncomeType) string {
	switch t {
	case ledger.IncomeQualifying:
		return "qualifying"
	case ledger.IncomeNonQualifying:
		return "non-qualifying"
	}

	return "-"
}

// Messages

type ledgerSaveMsg struct {
	status string
	err    error
}

func (m LedgerModel) saveCmd() tea.Cmd {
	f := *m.fields
	kind := m.kind
	svc := m.finance

	return func() tea.Msg {
		date, err := ParseDate(f.date)
		if err != nil {
			return ledgerSaveMsg{err: err}
		}

		amount, err := ParseAmount(f.amount)
		if err != nil {
			return ledgerSaveMsg{err: err}
		}

		if kind == ledger.KindRevenue {
			if f.editID == "" {
				_, err = svc.AddRevenue(ledger.RevenueParams{
					Amount:      amount,
					Description: f.description,
					Date:        date,
					Category:    f.category,
					IncomeType:  f.incomeType,
				})

				return ledgerSaveMsg{status: "Revenue added.", err: err}
			}

			err = svc.UpdateRevenue(f.editID, ledger.RevenuePatch{
				Amount:      &amount,
				Description: &f.description,
				Date:        &date,
				Category:    &f.category,
				IncomeType:  &f.incomeType,
			})

			return ledgerSaveMsg{status: "Revenue updated.", err: err}
		}

		if f.editID == "" {
			_, err = svc.AddExpense(ledger.ExpenseParams{
				Amount:      amount,
				Category:    f.category,
				Date:        date,
				Description: f.description,
				Vendor:      f.vendor,
			})

			return ledgerSaveMsg{status: "Expense added.", err: err}
		}

		err = svc.UpdateExpense(f.editID, ledger.ExpensePatch{
			Amount:      &amount,
			Category:    &f.category,
			Date:        &date,
			Description: &f.description,
			Vendor:      &f.vendor,
		})

		return ledgerSaveMsg{status: "Expense updated.", err: err}
	}
}

func (m LedgerModel) deleteCmd() tea.Cmd {
	idx := m.table.Cursor()
	svc := m.finance

	if m.kind == ledger.KindRevenue {
		if idx < 0 || idx >= len(m.revenues) {
			return nil
		}

		id := m.revenues[idx].ID

		return func() tea.Msg {
			return ledgerSaveMsg{status: "Revenue deleted.", err: svc.DeleteRevenue(id)}
		}
	}

	if idx < 0 || idx >= len(m.expenses) {
		return nil
	}

	id := m.expenses[idx].ID

	return func() tea.Msg {
		return ledgerSaveMsg{status: "Expense deleted.", err: svc.DeleteExpense(id)}
	}
}
