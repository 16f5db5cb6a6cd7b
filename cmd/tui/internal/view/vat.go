package view

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type vatFields struct {
	standard       string
	zero           string
	exempt         string
	recoverable    string
	nonRecoverable string
	designated     bool
	imports        string
}

func (f vatFields) inputs() (tax.VATInputs, error) {
	var (
		in  tax.VATInputs
		err error
	)

	if in.StandardRatedSales, err = ParseAmount(f.standard); err != nil {
		return in, err
	}

	if in.ZeroRatedSales, err = ParseAmount(f.zero); err != nil {
		return in, err
	}

	if in.ExemptSales, err = ParseAmount(f.exempt); err != nil {
		return in, err
	}

	if in.RecoverablePurchases, err = ParseAmount(f.recoverable); err != nil {
		return in, err
	}

	if in.NonRecoverablePurchases, err = ParseAmount(f.nonRecoverable); err != nil {
		return in, err
	}

	if in.DesignatedZoneMainlandImports, err = ParseAmount(f.imports); err != nil {
		return in, err
	}

	in.IsDesignatedZone = f.designated

	return in, nil
}

// VATModel computes a VAT return from figures entered for the period.
type VATModel struct {
	CommonModel
	finance *finance.Service

	form   *huh.Form
	fields *vatFields
	result *tax.VATResult
	err    error
}

func NewVATModel(svc *finance.Service) VATModel {
	m := VATModel{finance: svc, fields: &vatFields{}}
	m.form = m.newForm()

	return m
}

func (m VATModel) Title() string { return "VAT Return" }

func (m VATModel) ShortHelp() string {
	if m.result == nil {
		return "Navigate form | Esc: back"
	}

	return "Esc: back | e: edit figures"
}

func (m VATModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m VATModel) newForm() *huh.Form {
	f := m.fields

	amount := func(s string) error {
		_, err := ParseAmount(s)
		return err
	}

	input := func(key, title string, value *string) *huh.Input {
		return huh.NewInput().Key(key).Title(title).Value(value).Validate(amount)
	}

	return huh.NewForm(
		huh.NewGroup(
			input("standard", "Standard-rated sales (AED)", &f.standard),
			input("zero", "Zero-rated sales (AED)", &f.zero),
			input("exempt", "Exempt sales (AED)", &f.exempt),
			input("recoverable", "Purchases with recoverable VAT (AED)", &f.recoverable),
			input("non_recoverable", "Other purchases (AED)", &f.nonRecoverable),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("designated").
				Title("Operating in a Designated Zone?").
				Value(&f.designated),
			input("imports", "Goods brought in from the mainland (AED)", &f.imports),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m VATModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.result != nil {
			if keyMsg.String() == "e" {
				m.result = nil
				m.form = m.newForm()

				return m, m.form.Init()
			}

			return m, nil
		}
	}

	if m.result != nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	in, err := m.fields.inputs()
	if err != nil {
		m.err = err
		m.form = m.newForm()

		return m, m.form.Init()
	}

	r := m.finance.ComputeVAT(in)
	m.err = nil
	m.result = &r

	return m, nil
}

func (m VATModel) View() string {
	if m.result == nil {
		content := headingStyle.Render("VAT return figures") + "\n\n" + m.form.View()
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

	b.WriteString(headingStyle.Render("VAT Return") + "\n")
	row("Total sales", FormatAmount(r.TotalSales))
	row("Output VAT", FormatAmount(r.OutputVAT))
	row("Input VAT", FormatAmount(r.InputVAT))

	if !r.ReverseChargeVAT.IsZero() {
		row("Reverse charge", FormatAmount(r.ReverseChargeVAT))
	}

	b.WriteString("\n")

	if r.IsRefundable {
		row("Refund due", okStyle.Render("AED "+FormatAmount(r.NetVAT.Abs())))
	} else {
		row("VAT payable", lipgloss.NewStyle().Bold(true).Render("AED "+FormatAmount(r.NetVAT)))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
