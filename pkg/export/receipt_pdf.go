package export

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptParty is a sender or receiver block on the receipt.
type ReceiptParty struct {
	Name    string
	Phone   string
	Address string
	City    string
	Pincode string
	Country string
}

type ReceiptCharge struct {
	Label  string
	Amount float64
}

// Receipt is everything printed on a booking receipt.
type Receipt struct {
	CompanyName      string
	BookingNo        string
	AWB              string
	CreatedAt        time.Time
	Flow             string
	ShipmentType     string
	Status           string
	Sender           ReceiptParty
	Receiver         ReceiptParty
	Pieces           int
	ActualWeight     float64
	VolumetricWeight float64
	ChargeableWeight float64
	VendorName       string
	TAT              string
	Charges          []ReceiptCharge
	Total            float64
	PaymentMode      string
}

var (
	grey       = &props.Color{Red: 100, Green: 100, Blue: 100}
	labelStyle = props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: grey}
	valueStyle = props.Text{Size: 9, Align: align.Left}
)

// ReceiptPDF renders r on a single A4 page.
func ReceiptPDF(r Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()

	m := maroto.New(cfg)
	addReceiptHeader(m, r)
	addReceiptParties(m, r)
	addReceiptShipment(m, r)
	addReceiptCharges(m, r)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addReceiptHeader(m core.Maroto, r Receipt) {
	company := r.CompanyName
	if company == "" {
		company = "LogiBook"
	}
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(text.New(company, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left})),
			col.New(6).Add(text.New("BOOKING RECEIPT", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(7).Add(
			col.New(6).Add(text.New("Booking #: "+r.BookingNo, props.Text{Size: 10, Style: fontstyle.Bold})),
			col.New(6).Add(text.New(r.CreatedAt.Format("02 Jan 2006 15:04"), props.Text{Size: 9, Align: align.Right})),
		),
	)
	if r.AWB != "" {
		m.AddRows(row.New(6).Add(col.New(12).Add(text.New("AWB: "+r.AWB, valueStyle))))
	}
	m.AddRows(row.New(4).Add(col.New(12).Add(line.New())))
}

func partyLines(p ReceiptParty) []string {
	place := p.City
	if p.Pincode != "" {
		place = fmt.Sprintf("%s - %s", place, p.Pincode)
	}
	if p.Country != "" && p.Country != "India" {
		place = fmt.Sprintf("%s, %s", place, p.Country)
	}
	return []string{p.Name, p.Address, place, p.Phone}
}

func addReceiptParties(m core.Maroto, r Receipt) {
	m.AddRows(row.New(6).Add(
		col.New(6).Add(text.New("SENDER", labelStyle)),
		col.New(6).Add(text.New("RECEIVER", labelStyle)),
	))
	sender, receiver := partyLines(r.Sender), partyLines(r.Receiver)
	for i := range sender {
		m.AddRows(row.New(5).Add(
			col.New(6).Add(text.New(sender[i], valueStyle)),
			col.New(6).Add(text.New(receiver[i], valueStyle)),
		))
	}
	m.AddRows(row.New(4))
}

func addReceiptShipment(m core.Maroto, r Receipt) {
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("SHIPMENT", labelStyle))))
	pairs := [][2]string{
		{"Service", fmt.Sprintf("%s / %s", r.Flow, r.ShipmentType)},
		{"Status", r.Status},
		{"Pieces", fmt.Sprintf("%d", r.Pieces)},
		{"Actual weight", fmt.Sprintf("%.2f kg", r.ActualWeight)},
		{"Volumetric weight", fmt.Sprintf("%.2f kg", r.VolumetricWeight)},
		{"Chargeable weight", fmt.Sprintf("%.2f kg", r.ChargeableWeight)},
	}
	if r.VendorName != "" {
		pairs = append(pairs, [2]string{"Carrier", fmt.Sprintf("%s (%s)", r.VendorName, r.TAT)})
	}
	for _, p := range pairs {
		m.AddRows(row.New(5).Add(
			col.New(4).Add(text.New(p[0], valueStyle)),
			col.New(8).Add(text.New(p[1], valueStyle)),
		))
	}
	m.AddRows(row.New(4))
}

func addReceiptCharges(m core.Maroto, r Receipt) {
	if len(r.Charges) == 0 && r.Total == 0 {
		return
	}
	right := props.Text{Size: 9, Align: align.Right}
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("CHARGES", labelStyle))))
	for _, c := range r.Charges {
		m.AddRows(row.New(5).Add(
			col.New(8).Add(text.New(c.Label, valueStyle)),
			col.New(4).Add(text.New(fmt.Sprintf("%.2f", c.Amount), right)),
		))
	}
	m.AddRows(
		row.New(3).Add(col.New(12).Add(line.New())),
		row.New(7).Add(
			col.New(8).Add(text.New("Total (INR)", props.Text{Size: 10, Style: fontstyle.Bold})),
			col.New(4).Add(text.New(fmt.Sprintf("%.2f", r.Total), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
		),
	)
	if r.PaymentMode != "" {
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New("Paid via "+r.PaymentMode, labelStyle))))
	}
}
