package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
)

type setupFields struct {
	isQFZP  bool
	ceiling string
}

// SetupModel edits the company's setup profile.
type SetupModel struct {
	CommonModel
	profiles *profile.Store

	form   *huh.Form
	fields *setupFields
	status string
	err    error
}

func NewSetupModel(profiles *profile.Store) SetupModel {
	m := SetupModel{profiles: profiles, fields: &setupFields{ceiling: "0"}}

	ctx, cancel := StoreCtx()
	defer cancel()

	if p, err := profiles.Profile(ctx); err != nil {
		m.err = err
	} else {
		m.fields.isQFZP = p.IsQFZP
		m.fields.ceiling = p.FreeZoneIncome.Qualifying.String()
	}

	m.form = m.newForm()

	return m
}

func (m SetupModel) Title() string { return "Company Setup" }

func (m SetupModel) ShortHelp() string { return "Navigate form | Esc: back" }

func (m SetupModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SetupModel) newForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("qfzp").
				Title("Qualifying Free Zone Person?").
				Value(&f.isQFZP),
			huh.NewInput().
				Key("ceiling").
				Title("Qualifying income taxed at 0% (AED)").
				Value(&f.ceiling).
				Validate(func(s string) error {
					_, err := ParseAmount(s)
					return err
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	case setupSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = "Profile saved."
		}

		m.form = m.newForm()

		return m, m.form.Init()
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

func (m SetupModel) View() string {
	content := headingStyle.Render("Company setup") + "\n\n" + m.form.View()

	if m.err != nil {
		content = badStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + content
	} else if m.status != "" {
		content = okStyle.Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

type setupSavedMsg struct {
	err error
}

func (m SetupModel) saveCmd() tea.Cmd {
	f := *m.fields
	store := m.profiles

	return func() tea.Msg {
		ceiling, err := ParseAmount(f.ceiling)
		if err != nil {
			return setupSavedMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		return setupSavedMsg{err: store.Save(ctx, profile.Profile{
			IsQFZP:         f.isQFZP,
			FreeZoneIncome: profile.FreeZoneIncome{Qualifying: ceiling},
		})}
	}
}
