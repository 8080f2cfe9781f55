package postal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pincodeServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		code := strings.TrimPrefix(r.URL.Path, "/pincode/")
		switch code {
		case "560001":
			fmt.Fprint(w, `[{"Message":"Number of pincode(s) found:2","Status":"Success","PostOffice":[
				{"Name":"Bangalore G.P.O.","District":"Bangalore","State":"Karnataka","Country":"India"},
				{"Name":"Vidhana Soudha","District":"Bangalore","State":"Karnataka","Country":"India"}]}]`)
		case "700016":
			fmt.Fprint(w, `[{"Status":"Success","PostOffice":[{"Name":"Park Street","District":"Kolkata","State":"West Bengal","Country":"India"}]}]`)
		case "999999":
			fmt.Fprint(w, `[{"Message":"No records found","Status":"Error","PostOffice":null}]`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Lookup(t *testing.T) {
	var hits int32
	srv := pincodeServer(t, &hits)
	c, err := NewClient(srv.URL, srv.Client(), 8)
	require.NoError(t, err)

	p, err := c.Lookup(context.Background(), " 560001 ")
	require.NoError(t, err)
	assert.Equal(t, Place{
		Pincode: "560001", City: "Bangalore", State: "Karnataka", Country: "India",
		Offices: []string{"Bangalore G.P.O.", "Vidhana Soudha"},
	}, p)

	_, err = c.Lookup(context.Background(), "560001")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup is served from cache")
}

func TestClient_LookupErrors(t *testing.T) {
	var hits int32
	srv := pincodeServer(t, &hits)
	c, err := NewClient(srv.URL, srv.Client(), 8)
	require.NoError(t, err)

	tests := []struct {
		name    string
		pincode string
		expect  error
	}{
		{"too short", "5600", ErrInvalidPincode},
		{"leading zero", "012345", ErrInvalidPincode},
		{"unknown pincode", "999999", ErrNotFound},
		{"upstream failure", "110001", ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Lookup(context.Background(), tt.pincode)
			assert.ErrorIs(t, err, tt.expect)
		})
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "invalid pincodes never reach the API")

	_, _ = c.Lookup(context.Background(), "999999")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "failures are not cached")
}

func TestClient_LookupRoute(t *testing.T) {
	var hits int32
	srv := pincodeServer(t, &hits)
	c, err := NewClient(srv.URL, srv.Client(), 8)
	require.NoError(t, err)

	r, err := c.LookupRoute(context.Background(), "560001", "700016")
	require.NoError(t, err)
	assert.Equal(t, "Bangalore", r.Origin.City)
	assert.Equal(t, "West Bengal", r.Destination.State)

	_, err = c.LookupRoute(context.Background(), "560001", "999999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "destination 999999")
}
