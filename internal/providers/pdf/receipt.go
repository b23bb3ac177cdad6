// Package pdf renders order receipts.
package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

type Receipt struct {
	Reference   string
	Status      string
	ProductName string
	StoreName   string
	Quantity    int64
	UnitPrice   int64
	TotalPrice  int64
	Currency    string
	PlacedAt    time.Time
}

type ReceiptRenderer struct{}

func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

var Module = fx.Module("providers.pdf", fx.Provide(NewReceiptRenderer))

func (r *ReceiptRenderer) Render(receipt Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Order receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Reference: "+receipt.Reference, props.Text{Top: 0}),
			text.New("Status: "+receipt.Status, props.Text{Top: 5}),
			text.New("Placed: "+receipt.PlacedAt.Format("2006-01-02 15:04"), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Store", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.StoreName, props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(12,
		text.NewCol(6, receipt.ProductName, props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%d", receipt.Quantity), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, formatAmount(receipt.UnitPrice, receipt.Currency), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, formatAmount(receipt.TotalPrice, receipt.Currency), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(12, "Total "+formatAmount(receipt.TotalPrice, receipt.Currency), props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   5,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// formatAmount renders a minor-unit amount. CLP has no minor unit so the
// value prints as-is.
func formatAmount(amount int64, currency string) string {
	if currency == "CLP" {
		return fmt.Sprintf("%d %s", amount, currency)
	}
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}
