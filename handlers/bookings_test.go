package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/booking"
	"p9e.in/logibook/pkg/courier"
	"p9e.in/logibook/pkg/rateengine"
	"p9e.in/logibook/pkg/storage"
)

func TestValidateBookingStep(t *testing.T) {
	d := parcelDraft()

	t.Run("valid shipment step", func(t *testing.T) {
		rr := postJSON(t, ValidateBookingStep, "/api/bookings/validate?step=2", d)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp validateResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, 2, resp.Pieces)
		assert.InDelta(t, 9.6, resp.Weights.Chargeable, 1e-9)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := postJSON(t, ValidateBookingStep, "/api/bookings/validate?step=1", booking.NewDraft(booking.FlowDomestic))
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, 1.0, body["step"])
		assert.Contains(t, body["missingFields"], "shipment.originPincode")
	})

	t.Run("documents without upload", func(t *testing.T) {
		rr := postJSON(t, ValidateBookingStep, "/api/bookings/validate?step=3", d)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["missingFields"], "addresses.documents")
	})

	t.Run("rate step in export flow", func(t *testing.T) {
		rr := postJSON(t, ValidateBookingStep, "/api/bookings/validate?step=4", booking.NewDraft(booking.FlowExport))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad step", func(t *testing.T) {
		rr := postJSON(t, ValidateBookingStep, "/api/bookings/validate?step=two", d)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRepriceSelected(t *testing.T) {
	stubFuel(t, map[string]float64{"EKART": 15})
	d := parcelDraft()
	d.SelectedRate = &rateengine.VendorRate{VendorCode: "ekart", Price: 1}

	require.NoError(t, repriceSelected(d))
	want, ok := rateengine.Find(currentRateCard().Generate(d.RateQuery()), "EKART")
	require.True(t, ok)
	assert.Equal(t, want, *d.SelectedRate)
	assert.Greater(t, d.SelectedRate.Price, 1.0)

	d.SelectedRate = &rateengine.VendorRate{VendorCode: "DHL"}
	err := repriceSelected(d)
	var se *booking.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, booking.StepRate, se.Step)
	assert.Contains(t, se.MissingFields(), "selectedRate")

	d.SelectedRate = nil
	assert.NoError(t, repriceSelected(d))
}

func TestNewBookingNo(t *testing.T) {
	no := newBookingNo(time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC))
	assert.Regexp(t, `^LB-20261017-[0-9A-F]{6}$`, no)
	assert.NotEqual(t, no, newBookingNo(time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)))
}

func TestNewBookingRecord(t *testing.T) {
	d := parcelDraft()
	d.Extra.IsCOD = true
	d.Extra.CODAmount = 1500
	d.PaymentMode = "Wallet"
	d.Addresses.Documents[0].File = &booking.FileRef{Name: "inv.pdf", URL: "/uploads/inv.pdf"}
	rates := rateengine.GenerateVendorRates("560001", "700016", "NON_DOCUMENT", true, d.Weights().Chargeable)
	d.SelectedRate = &rates[0]

	b, err := newBookingRecord(d, [16]byte{1}, booking.BuildDomesticBookingPayload(d))
	require.NoError(t, err)
	assert.Equal(t, "domestic", b.Flow)
	assert.Equal(t, models.BookingCreated, b.Status)
	assert.Equal(t, "wallet", b.PaymentMode)
	assert.Equal(t, "India", b.DestCountry)
	assert.Equal(t, "Kolkata", b.DestCity)
	assert.Equal(t, 2, b.Pieces)
	assert.InDelta(t, 9.6, b.ChargeableWeight, 1e-9)
	assert.Equal(t, rates[0].Price, b.Amount)
	assert.Equal(t, "DELHIVERY", b.VendorCode)
	assert.Equal(t, 1500.0, b.CODAmount)
	assert.Equal(t, []string{"/uploads/inv.pdf"}, []string(b.DocumentURLs))

	var payload booking.DomesticPayload
	require.NoError(t, json.Unmarshal(b.Payload, &payload))
	assert.Equal(t, "DELHIVERY", payload.Vendor.Code)
}

func TestNewBookingRecord_Export(t *testing.T) {
	d := parcelDraft()
	d.Flow = booking.FlowExport
	d.Shipment.DestCountry = "Japan"
	d.Shipment.DestZipcode = "100-0001"
	d.Addresses.Receiver.City = "Tokyo"

	b, err := newBookingRecord(d, [16]byte{1}, booking.BuildExternalBookingPayload(d, booking.Credentials{}))
	require.NoError(t, err)
	assert.Equal(t, "Japan", b.DestCountry)
	assert.Equal(t, "100-0001", b.DestPincode)
	assert.Equal(t, "Tokyo", b.DestCity)
	assert.Zero(t, b.Amount)
}

func TestWriteSubmitError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"step error", &booking.StepError{Step: booking.StepParties}, http.StatusUnprocessableEntity},
		{"unknown flow", fmt.Errorf("%w: %q", booking.ErrUnknownFlow, "import"), http.StatusBadRequest},
		{"wallet", ErrInsufficientBalance, http.StatusPaymentRequired},
		{"file type", fmt.Errorf("notes.txt: %w", errUnsupportedType), http.StatusBadRequest},
		{"empty file", fmt.Errorf("a.pdf: %w", storage.ErrEmptyFile), http.StatusBadRequest},
		{"courier down", fmt.Errorf("%w: status 500", courier.ErrUpstream), http.StatusBadGateway},
		{"courier missing", courier.ErrNotConfigured, http.StatusServiceUnavailable},
		{"anything else", errors.New("insert booking: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeSubmitError(rr, tt.err)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestCreateDomesticBooking_RejectsBeforeTouchingStorage(t *testing.T) {
	store := useTempStore(t)
	stubFuel(t, nil)

	d := parcelDraft()
	d.Addresses.Sender.Phone = ""
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	tests := []struct {
		name   string
		fields map[string]string
		status int
	}{
		{"missing booking field", map[string]string{}, http.StatusBadRequest},
		{"wrong flow", map[string]string{"booking": `{"flow":"export"}`}, http.StatusBadRequest},
		{"bad payment mode", map[string]string{"booking": `{"flow":"domestic","paymentMode":"cash"}`}, http.StatusUnprocessableEntity},
		{"invalid sender", map[string]string{"booking": string(raw)}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, part{"documents", "invoice.pdf", []byte("%PDF-1.4")})
			req := httptest.NewRequest(http.MethodPost, "/api/bookings/domestic", body)
			req.Header.Set("Content-Type", ct)
			req = withCustomer(req)
			rr := httptest.NewRecorder()

			CreateDomesticBooking(rr, req)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is stored for a rejected submission")
}

func TestBuildReceipt(t *testing.T) {
	d := parcelDraft()
	d.Addresses.Sender.AddressLine2 = "Shivajinagar"
	rates := rateengine.GenerateVendorRates("560001", "700016", "NON_DOCUMENT", false, d.Weights().Chargeable)
	d.SelectedRate = &rates[1]
	raw, err := json.Marshal(booking.BuildDomesticBookingPayload(d))
	require.NoError(t, err)

	b := models.Booking{
		BookingNo: "LB-20261017-ABC123", Flow: "domestic", ShipmentType: "NON_DOCUMENT",
		Status: models.BookingCreated, Pieces: 2, ChargeableWeight: 9.6,
		VendorName: "Bluedart", Amount: rates[1].Price, PaymentMode: "prepaid",
		Payload: datatypes.JSON(raw),
	}
	rc, err := buildReceipt(b, "LogiBook")
	require.NoError(t, err)
	assert.Equal(t, "LogiBook", rc.CompanyName)
	assert.Equal(t, "Asha Traders", rc.Sender.Name)
	assert.Equal(t, "12 MG Road, Shivajinagar", rc.Sender.Address)
	assert.Equal(t, "India", rc.Receiver.Country)
	assert.Equal(t, "1-2 days", rc.TAT)
	require.Len(t, rc.Charges, 3)
	assert.Equal(t, rateengine.ChargeGST, rc.Charges[2].Label)

	d.Flow = booking.FlowExport
	d.Shipment.DestCountry = "Japan"
	raw, err = json.Marshal(booking.BuildExternalBookingPayload(d, booking.Credentials{Username: "u", Password: "p"}).Redacted())
	require.NoError(t, err)
	b.Flow = "export"
	b.Payload = datatypes.JSON(raw)
	rc, err = buildReceipt(b, "LogiBook")
	require.NoError(t, err)
	assert.Equal(t, "Asha Traders", rc.Sender.Name)
	assert.Equal(t, "12 MG Road, Shivajinagar", rc.Sender.Address)
	assert.Equal(t, "Japan", rc.Receiver.Country)
	assert.Empty(t, rc.Charges)
}

func withCustomer(r *http.Request) *http.Request {
	return middleware.WithClaims(r, &middleware.Claims{
		UserID: "6f1c2b7e-0d3a-4c55-9a61-2b8f0e7d4c10",
		Name:   "Asha",
		Kind:   middleware.KindCustomer,
	})
}

func exportDraft() *booking.Draft {
	d := booking.NewDraft(booking.FlowExport)
	d.Shipment.Route = booking.Route{
		OriginPincode: "400001", OriginCity: "Mumbai", OriginState: "Maharashtra",
		DestCountry: "United Kingdom", DestZipcode: "SW1A1AA",
	}
	d.SetShipmentType(booking.NonDocument)
	d.SetBoxesCount(1)
	d.Extra.Parcel.Rows[0] = booking.BoxRow{Qty: 1, Weight: 2.5, Length: 30, Breadth: 20, Height: 10}
	d.Extra.Goods = []booking.GoodsRow{
		{BoxNo: 1, Description: "Cotton shirts", HSNCode: "6205", Qty: 4, Unit: "PCS", Rate: 750},
	}
	d.Extra.Export = &booking.ExportDetails{InvoiceNo: "EXP-001", InvoiceDate: "2026-10-01", Currency: "INR"}
	d.Addresses = booking.Addresses{
		Sender: booking.Party{
			Name: "Asha Traders", Phone: "9876543210", AddressLine1: "12 MG Road",
			Pincode: "400001", City: "Mumbai", State: "Maharashtra",
		},
		Receiver: booking.Party{
			Name: "Oliver Hale", Phone: "447911123456", AddressLine1: "10 Downing St",
			Pincode: "SW1A1AA", City: "London", Country: "United Kingdom",
		},
		Documents: []booking.DocumentRow{{Type: "PAN", Number: "ABCDE1234F"}, {Type: "AADHAAR"}},
	}
	return d
}

func postExport(t *testing.T, d *booking.Draft, files ...part) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	body, ct := multipartBody(t, map[string]string{"booking": string(raw)}, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/export", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	CreateExportBooking(rr, withCustomer(req))
	return rr
}

type courierSubmission struct {
	fields map[string]string
	files  []string
}

func TestCreateExportBooking_CourierRejects(t *testing.T) {
	store := useTempStore(t)
	got := make(chan courierSubmission, 1)
	useCourier(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		sub := courierSubmission{fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			sub.fields[k] = v[0]
		}
		for _, fh := range r.MultipartForm.File["documents"] {
			sub.files = append(sub.files, fh.Filename)
		}
		got <- sub
		fmt.Fprint(w, `{"status":false,"message":"Consignee phone invalid"}`)
	})

	rr := postExport(t, exportDraft(),
		part{"documents", "pan.pdf", []byte("%PDF-1.4 pan")},
		part{"documents", "aadhaar.pdf", []byte("%PDF-1.4 aadhaar")},
	)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["error"], "Consignee phone invalid")

	sub := <-got
	assert.Equal(t, "acct", sub.fields["username"])
	assert.Equal(t, "EXPORT", sub.fields["service_type"])
	assert.Equal(t, "NDOX", sub.fields["shipment_type"])
	assert.Equal(t, "2.50", sub.fields["chargeable_weight"])
	assert.Equal(t, []string{"pan.pdf", "aadhaar.pdf"}, sub.files)
	assert.Contains(t, sub.fields["kyc_documents"], "ABCDE1234F")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "documents of a rejected booking are removed")
}

func TestCreateExportBooking_CourierNotConfigured(t *testing.T) {
	store := useTempStore(t)
	useCourier(t, nil)

	rr := postExport(t, exportDraft(),
		part{"documents", "pan.pdf", []byte("%PDF-1.4 pan")},
		part{"documents", "aadhaar.pdf", []byte("%PDF-1.4 aadhaar")},
	)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateExportBooking_MissingKYC(t *testing.T) {
	store := useTempStore(t)
	called := false
	useCourier(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		fmt.Fprint(w, `{"status":true,"data":{"awb_no":"X1"}}`)
	})

	rr := postExport(t, exportDraft(), part{"documents", "pan.pdf", []byte("%PDF-1.4 pan")})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, float64(booking.StepParties), body["step"])
	assert.Contains(t, body["missingFields"], "addresses.documents.1.file")
	assert.NotContains(t, body["missingFields"], "addresses.documents.0.file")
	assert.False(t, called, "courier is not contacted for an incomplete booking")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
