package courier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p9e.in/logibook/pkg/booking"
)

var testCreds = booking.Credentials{Username: "acct", Password: "s3cret"}

func TestClient_Rates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acct", body["username"])
		assert.Equal(t, "s3cret", body["password"])
		assert.Equal(t, "IMPORT", body["service_type"])
		assert.Equal(t, 2.5, body["chargeable_weight"])
		fmt.Fprint(w, `{"status":"success","message":"ok","data":[
			{"service":"Express","network":"DHL","tat":"3-4 days","price":4120.5,"currency":"INR"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", testCreds, srv.Client())
	quotes, err := c.Rates(context.Background(), RateRequest{
		ServiceType: "IMPORT", ShipmentType: "NDOX", DestCountry: "India",
		ChargeableWeight: 2.5, Pieces: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []Quote{{Service: "Express", Network: "DHL", TAT: "3-4 days", Price: 4120.5, Currency: "INR"}}, quotes)
}

func TestClient_RatesFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"status false", http.StatusOK, `{"status":false,"message":"Invalid credentials"}`, "Invalid credentials"},
		{"http error with envelope", http.StatusBadRequest, `{"status":"error","message":"Weight missing"}`, "Weight missing"},
		{"non json", http.StatusBadGateway, `<html>bad gateway</html>`, "status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, testCreds, srv.Client()).Rates(context.Background(), RateRequest{})
			require.ErrorIs(t, err, ErrUpstream)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := New("", testCreds, nil)
	_, err := c.Rates(context.Background(), RateRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.CreateBooking(context.Background(), booking.ExternalPayload{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_CreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booking/create", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "acct", r.FormValue("username"))
		assert.Equal(t, "NDOX", r.FormValue("shipment_type"))
		assert.Equal(t, "1.50", r.FormValue("chargeable_weight"))
		assert.True(t, strings.HasPrefix(r.FormValue("boxes"), "["))

		files := r.MultipartForm.File["documents"]
		if !assert.Len(t, files, 2) {
			return
		}
		assert.Equal(t, "pan.pdf", files[0].Filename)
		f, err := files[1].Open()
		if !assert.NoError(t, err) {
			return
		}
		content, _ := io.ReadAll(f)
		f.Close()
		assert.Equal(t, "aadhaar-bytes", string(content))

		fmt.Fprint(w, `{"status":1,"message":"Booked","data":{"awb_no":"SKX123456","reference_no":"R-9","label_url":"https://x/label.pdf"}}`)
	}))
	defer srv.Close()

	payload := booking.ExternalPayload{
		Username: "acct", Password: "s3cret", ShipmentType: "NDOX", ChargeableWeight: "1.50",
		Boxes: []booking.ExternalBox{{BoxNo: "1", Weight: "1.50"}},
	}
	res, err := New(srv.URL, testCreds, srv.Client()).CreateBooking(context.Background(), payload, []Attachment{
		{Filename: "pan.pdf", Content: strings.NewReader("pan-bytes")},
		{Filename: "aadhaar.pdf", Content: strings.NewReader("aadhaar-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, BookingResult{AWB: "SKX123456", ReferenceNo: "R-9", LabelURL: "https://x/label.pdf"}, res)
}
