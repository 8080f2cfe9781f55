package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/logibook/pkg/booking"
	"p9e.in/logibook/pkg/rateengine"
	"p9e.in/logibook/pkg/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// stubFuel replaces the database lookup of fuel surcharges for one test.
func stubFuel(t *testing.T, pcts map[string]float64) {
	t.Helper()
	prevFuel, prevCard := activeFuelSurcharges, RateCard
	activeFuelSurcharges = func(time.Time) (map[string]float64, error) { return pcts, nil }
	RateCard = rateengine.DefaultRateCard()
	t.Cleanup(func() {
		activeFuelSurcharges = prevFuel
		RateCard = prevCard
	})
}

func useTempStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	prev := Store
	Store = s
	t.Cleanup(func() { Store = prev })
	return s
}

type part struct {
	field, name string
	body        []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func fileHeaders(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	body, ct := multipartBody(t, nil, parts...)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["documents"]
}

func parcelDraft() *booking.Draft {
	d := booking.NewDraft(booking.FlowDomestic)
	d.Shipment.Route = booking.Route{
		OriginPincode: "560001", OriginCity: "Bengaluru", OriginState: "Karnataka",
		DestPincode: "700016", DestCity: "Kolkata", DestState: "West Bengal",
	}
	d.SetShipmentType(booking.NonDocument)
	d.SetBoxesCount(2)
	d.Extra.Parcel.Rows = []booking.BoxRow{{Qty: 2, Weight: 3, Length: 40, Breadth: 30, Height: 20}}
	d.Addresses = booking.Addresses{
		Sender: booking.Party{
			Name: "Asha Traders", Phone: "9876543210", AddressLine1: "12 MG Road",
			Pincode: "560001", City: "Bengaluru", State: "Karnataka",
		},
		Receiver: booking.Party{
			Name: "Kiran Stores", Phone: "9812345678", AddressLine1: "4 Park Street",
			Pincode: "700016", City: "Kolkata", State: "West Bengal",
		},
		Documents: []booking.DocumentRow{{Type: "INVOICE"}},
	}
	return d
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query               string
		page, limit, offset int
	}{
		{"", 1, 20, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"page=0&limit=-5", 1, 20, 0},
		{"page=2&limit=500", 2, 100, 100},
		{"page=abc", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			page, limit, offset := pagination(r)
			assert.Equal(t, []int{tt.page, tt.limit, tt.offset}, []int{page, limit, offset})
		})
	}
}

func TestUploadFileHandler(t *testing.T) {
	store := useTempStore(t)

	tests := []struct {
		name   string
		part   part
		status int
	}{
		{"png accepted", part{"file", "label.png", pngBytes}, http.StatusCreated},
		{"pdf accepted", part{"file", "invoice.pdf", []byte("%PDF-1.4\n%test\n")}, http.StatusCreated},
		{"text rejected", part{"file", "notes.txt", []byte("just some notes")}, http.StatusUnsupportedMediaType},
		{"empty rejected", part{"file", "empty.pdf", nil}, http.StatusBadRequest},
		{"wrong field", part{"attachment", "label.png", pngBytes}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, nil, tt.part)
			req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()

			UploadFileHandler(rr, req)

			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusCreated {
				return
			}
			var obj storage.Object
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &obj))
			assert.True(t, strings.HasPrefix(obj.URL, "/uploads/"))
			assert.Equal(t, int64(len(tt.part.body)), obj.Size)
			_, err := os.Stat(filepath.Join(store.Dir(), obj.Name))
			assert.NoError(t, err)
		})
	}
}

func TestAttachFiles(t *testing.T) {
	d := parcelDraft()
	d.Addresses.Documents = []booking.DocumentRow{
		{Type: "INVOICE"},
		{Type: "EWAY", File: &booking.FileRef{Name: "eway.pdf", URL: "/uploads/eway.pdf"}},
	}
	files := fileHeaders(t,
		part{"documents", "invoice.pdf", []byte("%PDF-1.4")},
		part{"documents", "photo.png", pngBytes},
		part{"documents", "label.png", pngBytes},
	)

	pending := attachFiles(d, files)

	require.Len(t, pending, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{pending[0].row, pending[1].row, pending[2].row})
	docs := d.Addresses.Documents
	require.Len(t, docs, 4)
	assert.Equal(t, "invoice.pdf", docs[0].File.Name)
	assert.Equal(t, "/uploads/eway.pdf", docs[1].File.URL, "rows with a stored file keep it")
	assert.Equal(t, booking.DocTypeOther, docs[2].Type)
	assert.Equal(t, "photo.png", docs[2].OtherName)
	assert.Equal(t, "label.png", docs[3].OtherName)
}

func TestStorePending(t *testing.T) {
	useTempStore(t)
	d := parcelDraft()
	pending := attachFiles(d, fileHeaders(t, part{"documents", "invoice.pdf", []byte("%PDF-1.4 body")}))

	objs, err := storePending(t.Context(), d, pending)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, objs[0].URL, d.Addresses.Documents[0].File.URL)
	assert.Equal(t, []string{objs[0].URL}, documentURLs(d))
}

func TestStorePending_RemovesEarlierFilesOnFailure(t *testing.T) {
	store := useTempStore(t)
	d := parcelDraft()
	d.Addresses.Documents = nil
	pending := attachFiles(d, fileHeaders(t,
		part{"documents", "ok.png", pngBytes},
		part{"documents", "bad.txt", []byte("plain text")},
	))

	_, err := storePending(t.Context(), d, pending)
	assert.ErrorIs(t, err, errUnsupportedType)
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestCreateAdminReq_Validate(t *testing.T) {
	req := createAdminReq{
		Name: "Ops", Email: "ops@logibook.local", Password: "correct-horse",
		Role: "admin", Permissions: []string{"bookings:*", "users:read", "*"},
	}
	assert.NoError(t, req.Validate())

	req.Permissions = []string{"bookings:read", "Bookings Read"}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")

	req.Permissions = nil
	req.Role = "owner"
	assert.Error(t, req.Validate())
}
