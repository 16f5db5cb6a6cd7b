package importer

type amountMode int

const (
	// amountSigned is one column; negative values are money out.
	amountSigned amountMode = iota
	// amountSplit is a debit column and a credit column.
	amountSplit
)

// layout is a statement column layout. Each column lists the header names it
// is known by, in order of preference; headers are compared lower-cased.
type layout struct {
	Name   string
	Date   []string
	Desc   []string
	Mode   amountMode
	Amount []string
	Debit  []string
	Credit []string
}

var (
	dateHeaders = []string{"date", "transaction date", "txn date", "posting date", "value date"}
	descHeaders = []string{"description", "narration", "details", "transaction details"}
)

// layouts is tried in order; split layouts come first since statements that
// carry debit and credit columns sometimes also carry a running amount.
var layouts = []layout{
	{
		Name:   "debit-credit",
		Date:   dateHeaders,
		Desc:   descHeaders,
		Mode:   amountSplit,
		Debit:  []string{"debit", "debit amount", "withdrawal", "withdrawals"},
		Credit: []string{"credit", "credit amount", "deposit", "deposits"},
	},
	{
		Name:   "signed",
		Date:   dateHeaders,
		Desc:   descHeaders,
		Mode:   amountSigned,
		Amount: []string{"amount", "amount (aed)", "amount aed"},
	},
}

// columns is a layout resolved against one header row.
type columns struct {
	layout *layout
	date   int
	desc   int
	amount int
	debit  int
	credit int
}

func (l *layout) resolve(header map[string]int) (columns, bool) {
	c := columns{layout: l, amount: -1, debit: -1, credit: -1}

	var ok bool
	if c.date, ok = lookup(header, l.Date); !ok {
		return columns{}, false
	}

	if c.desc, ok = lookup(header, l.Desc); !ok {
		return columns{}, false
	}

	switch l.Mode {
	case amountSigned:
		if c.amount, ok = lookup(header, l.Amount); !ok {
			return columns{}, false
		}
	case amountSplit:
		if c.debit, ok = lookup(header, l.Debit); !ok {
			return columns{}, false
		}

		if c.credit, ok = lookup(header, l.Credit); !ok {
			return columns{}, false
		}
	}

	return c, true
}

func lookup(header map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := header[n]; ok {
			return i, true
		}
	}

	return -1, false
}
