package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var created = time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC)

func sampleRows() []BookingRow {
	return []BookingRow{
		{BookingNo: "LB-20261017-0001", CreatedAt: created, Flow: "domestic", ShipmentType: "NON_DOCUMENT",
			Status: "CREATED", SenderName: "Asha Traders", OriginCity: "Bengaluru", ReceiverName: "Kiran Stores",
			DestinationCity: "Kolkata", Pieces: 3, ChargeableWeight: 29.6, VendorName: "Bluedart", Amount: 2684.5,
			PaymentMode: "wallet"},
		{BookingNo: "LB-20261017-0002", CreatedAt: created, Flow: "export", ShipmentType: "DOCUMENT",
			Status: "BOOKED", AWB: "SKX123456", Pieces: 1, ChargeableWeight: 0.5, Amount: 1000},
	}
}

func TestBookingsWorkbook(t *testing.T) {
	buf, err := BookingsWorkbook("Bookings Oct 2026", sampleRows(), created)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{bookingsSheet}, f.GetSheetList())

	title, _ := f.GetCellValue(bookingsSheet, "A1")
	assert.Equal(t, "Bookings Oct 2026", title)

	header, _ := f.GetCellValue(bookingsSheet, "A4")
	assert.Equal(t, "Booking No", header)

	awb, _ := f.GetCellValue(bookingsSheet, "F6")
	assert.Equal(t, "SKX123456", awb)

	label, _ := f.GetCellValue(bookingsSheet, "M7")
	assert.Equal(t, "Total", label)
	total, _ := f.GetCellValue(bookingsSheet, "N7", excelize.Options{RawCellValue: true})
	assert.Equal(t, "3684.5", total)
}

func TestBookingsWorkbook_Empty(t *testing.T) {
	buf, err := BookingsWorkbook("Nothing", nil, created)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	label, _ := f.GetCellValue(bookingsSheet, "M5")
	assert.Equal(t, "Total", label)
}

func TestReceiptPDF(t *testing.T) {
	pdf, err := ReceiptPDF(Receipt{
		BookingNo: "LB-20261017-0001", CreatedAt: created, Flow: "domestic", ShipmentType: "NON_DOCUMENT",
		Status:   "CREATED",
		Sender:   ReceiptParty{Name: "Asha Traders", Phone: "9876543210", Address: "12 MG Road", City: "Bengaluru", Pincode: "560001"},
		Receiver: ReceiptParty{Name: "Kiran Stores", Address: "4 Park Street", City: "Kolkata", Pincode: "700016"},
		Pieces:   3, ActualWeight: 11, VolumetricWeight: 29.6, ChargeableWeight: 29.6,
		VendorName: "Bluedart", TAT: "1-2 days",
		Charges: []ReceiptCharge{{"Base Freight", 2000}, {"GST", 360}},
		Total:   2360, PaymentMode: "prepaid",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestReceiptPDF_Minimal(t *testing.T) {
	pdf, err := ReceiptPDF(Receipt{BookingNo: "LB-1", CreatedAt: created})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}
