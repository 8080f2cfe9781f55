// Package export renders bookings as an xlsx sheet for the admin console and
// as a one-page PDF receipt for customers.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

// BookingRow is one booking as it appears in exports.
type BookingRow struct {
	BookingNo        string
	CreatedAt        time.Time
	Flow             string
	ShipmentType     string
	Status           string
	AWB              string
	SenderName       string
	OriginCity       string
	ReceiverName     string
	DestinationCity  string
	Pieces           int
	ChargeableWeight float64
	VendorName       string
	Amount           float64
	PaymentMode      string
}

var bookingHeaders = []string{
	"Booking No", "Created", "Flow", "Type", "Status", "AWB",
	"Sender", "Origin", "Receiver", "Destination",
	"Pieces", "Chargeable Wt (kg)", "Vendor", "Amount (INR)", "Payment",
}

// BookingsWorkbook writes the rows into a single sheet with a title, a header
// row and a total line, and returns the xlsx bytes.
func BookingsWorkbook(title string, rows []BookingRow, generated time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), bookingsSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: borders("000000"),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: borders("CCCCCC")})
	if err != nil {
		return nil, fmt.Errorf("create data style: %w", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{Border: borders("CCCCCC"), CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
		CustomNumFmt: &moneyFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	f.SetCellValue(bookingsSheet, "A1", title)
	f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)
	f.SetRowHeight(bookingsSheet, 1, 30)
	f.SetCellValue(bookingsSheet, "A2", fmt.Sprintf("Generated: %s", generated.Format("2006-01-02 15:04:05")))

	const headerRow = 4
	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(bookingsSheet, cell, h)
		f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(bookingsSheet, colName, colName, 18)
	}

	var total float64
	for r, b := range rows {
		values := []any{
			b.BookingNo, b.CreatedAt.Format("2006-01-02 15:04"), b.Flow, b.ShipmentType, b.Status, b.AWB,
			b.SenderName, b.OriginCity, b.ReceiverName, b.DestinationCity,
			b.Pieces, b.ChargeableWeight, b.VendorName, b.Amount, b.PaymentMode,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, headerRow+1+r)
			f.SetCellValue(bookingsSheet, cell, v)
			style := dataStyle
			if c == 11 || c == 13 {
				style = moneyStyle
			}
			f.SetCellStyle(bookingsSheet, cell, cell, style)
		}
		total += b.Amount
	}

	totalRow := headerRow + len(rows) + 1
	labelCell, _ := excelize.CoordinatesToCellName(13, totalRow)
	valueCell, _ := excelize.CoordinatesToCellName(14, totalRow)
	f.SetCellValue(bookingsSheet, labelCell, "Total")
	f.SetCellValue(bookingsSheet, valueCell, total)
	f.SetCellStyle(bookingsSheet, labelCell, valueCell, totalStyle)

	if err := f.SetPanes(bookingsSheet, &excelize.Panes{
		Freeze: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func borders(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}
