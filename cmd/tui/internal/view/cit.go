package view

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type citFields struct {
	adjustments string
	exempt      string
	losses      string
	claimSBR    bool
	taxGroup    bool
}

func (f citFields) elections() (tax.CITElections, error) {
	adjustments, err := ParseSignedAmount(f.adjustments)
	if err != nil {
		return tax.CITElections{}, err
	}

	exempt, err := ParseAmount(f.exempt)
	if err != nil {
		return tax.CITElections{}, err
	}

	losses, err := ParseAmount(f.losses)
	if err != nil {
		return tax.CITElections{}, err
	}

	return tax.CITElections{
		TaxAdjustments:             adjustments,
		ExemptIncome:               exempt,
		CarriedForwardLosses:       losses,
		SmallBusinessReliefClaimed: f.claimSBR,
		TaxGroupElection:           f.taxGroup,
	}, nil
}

// CITModel collects the filer's elections and shows the resulting liability.
// The result follows the ledger once computed.
type CITModel struct {
	CommonModel
	finance *finance.Service

	form      *huh.Form
	fields    *citFields
	elections *tax.CITElections
	result    tax.CITResult
	err       error
}

func NewCITModel(svc *finance.Service) CITModel {
	m := CITModel{finance: svc, fields: &citFields{}}
	m.form = m.newForm()

	return m
}

func (m CITModel) Title() string { return "Corporate Tax" }

func (m CITModel) ShortHelp() string {
	if m.elections == nil {
		return "Navigate form | Esc: back"
	}

	return "Esc: back | e: edit elections"
}

func (m CITModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m CITModel) newForm() *huh.Form {
	f := m.fields

	amount := func(s string) error {
		_, err := ParseAmount(s)
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("adjustments").
				Title("Tax adjustments (AED)").
				Description("Non-deductible items add, allowances subtract").
				Value(&f.adjustments).
				Validate(func(s string) error {
					_, err := ParseSignedAmount(s)
					return err
				}),
			huh.NewInput().
				Key("exempt").
				Title("Exempt income (AED)").
				Value(&f.exempt).
				Validate(amount),
			huh.NewInput().
				Key("losses").
				Title("Losses brought forward (AED)").
				Value(&f.losses).
				Validate(amount),
			huh.NewConfirm().
				Key("sbr").
				Title("Claim Small Business Relief?").
				Value(&f.claimSBR),
			huh.NewConfirm().
				Key("group").
				Title("Member of a tax group?").
				Value(&f.taxGroup),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m CITModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LedgerChangedMsg:
		if m.elections != nil {
			m.compute()
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.elections != nil {
			if msg.String() == "e" {
				m.elections = nil
				m.form = m.newForm()

				return m, m.form.Init()
			}

			return m, nil
		}
	}

	if m.elections != nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	e, err := m.fields.elections()
	if err != nil {
		m.err = err
		m.form = m.newForm()

		return m, m.form.Init()
	}

	m.err = nil
	m.elections = &e
	m.compute()

	return m, nil
}

func (m *CITModel) compute() {
	ctx, cancel := StoreCtx()
	defer cancel()

	m.result = m.finance.ComputeCIT(ctx, *m.elections)
}

func (m CITModel) View() string {
	if m.elections == nil {
		content := headingStyle.Render("Corporate Tax elections") + "\n\n" + m.form.View()
		if m.err != nil {
			content = badStyle.Render(m.err.Error()) + "\n\n" + content
		}

		return lipgloss.NewStyle().Padding(1, 2).Render(content)
	}

	r := m.result

	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	b.WriteString(headingStyle.Render("Corporate Tax") + "\n")
	row("Net profit", FormatAmount(r.NetProfit))
	row("Adjusted profit", FormatAmount(r.AdjustedProfit))
	row("Losses used", FormatAmount(r.AllowedLosses))
	row("Taxable income", FormatAmount(r.TaxableIncome))

	if !r.QualifyingIncome.IsZero() || !r.NonQualifyingIncome.IsZero() {
		row("Qualifying (0%)", FormatAmount(r.QualifyingIncome))
		row("Non-qualifying", FormatAmount(r.NonQualifyingIncome))
	}

	if r.SmallBusinessReliefApplied {
		row("Small Business Relief", okStyle.Render("applied"))
	} else if m.elections.SmallBusinessReliefClaimed {
		row("Small Business Relief", badStyle.Render("not available, revenue above limit"))
	}

	if r.TaxGroupElection {
		row("Tax group", "yes")
	}

	b.WriteString("\n")
	row("CIT payable", lipgloss.NewStyle().Bold(true).Render("AED "+FormatAmount(r.CITPayable)))
	row("Effective rate", FormatPercent(r.EffectiveRatePercent))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
