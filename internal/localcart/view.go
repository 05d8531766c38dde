package localcart

import (
	"storefront/internal/catalog"

	"github.com/shopspring/decimal"
)

// State is the shape the cart view takes
type State int

const (
	Empty State = iota
	Populated
)

func (s State) String() string {
	if s == Empty {
		return "empty"
	}
	return "populated"
}

// FreeShippingLabel replaces the shipping amount once shipping is waived
const FreeShippingLabel = "Free"

// Row is one rendered line
type Row struct {
	Index     int
	ProductID catalog.ProductID
	Name      string
	Image     string
	UnitPrice string
	Quantity  int
	LineTotal string
}

// View is everything a renderer needs to draw the cart
type View struct {
	State    State
	Rows     []Row
	Subtotal string
	Shipping string
	Total    string
	// Badge is the item count shown next to the cart icon
	Badge  int
	Totals Totals
}

// BuildView renders the cart into display strings
func BuildView(c Cart) View {
	totals := ComputeTotals(c)
	view := View{
		State:    Empty,
		Subtotal: money(totals.Subtotal),
		Shipping: money(totals.Shipping),
		Total:    money(totals.Total),
		Badge:    totals.ItemCount,
		Totals:   totals,
	}
	if totals.FreeShipping {
		view.Shipping = FreeShippingLabel
	}

	if c.IsEmpty() {
		return view
	}

	view.State = Populated
	view.Rows = make([]Row, 0, c.Len())
	for i, item := range c.items {
		view.Rows = append(view.Rows, Row{
			Index:     i,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: money(item.Price),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal()),
		})
	}
	return view
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
