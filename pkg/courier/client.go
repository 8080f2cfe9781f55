// Package courier talks to the third-party courier API used for export
// bookings and import/export rate quotes.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"p9e.in/logibook/pkg/booking"
)

var (
	ErrNotConfigured = errors.New("courier: API URL not configured")
	ErrUpstream      = errors.New("courier: upstream request failed")
)

// envelope is the response wrapper the courier API uses for every call.
type envelope struct {
	Status  any             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) ok() bool {
	switch v := e.Status.(type) {
	case bool:
		return v
	case float64:
		return v == 1 || v == 200
	case string:
		s := strings.ToLower(v)
		return s == "success" || s == "ok" || s == "true" || s == "1"
	}
	return false
}

type Client struct {
	baseURL string
	creds   booking.Credentials
	http    *http.Client
}

func New(baseURL string, creds booking.Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), creds: creds, http: httpClient}
}

func (c *Client) Credentials() booking.Credentials { return c.creds }

// RateRequest asks for quotes on one international shipment.
type RateRequest struct {
	ServiceType      string  `json:"service_type"`
	ShipmentType     string  `json:"shipment_type"`
	OriginCountry    string  `json:"origin_country"`
	OriginPincode    string  `json:"origin_pincode"`
	DestCountry      string  `json:"destination_country"`
	DestZipcode      string  `json:"destination_zipcode"`
	ChargeableWeight float64 `json:"chargeable_weight"`
	Pieces           int     `json:"no_of_pieces"`
}

type Quote struct {
	Service  string  `json:"service"`
	Network  string  `json:"network"`
	TAT      string  `json:"tat"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type rateBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RateRequest
}

// Rates returns the courier's quotes for req.
func (c *Client) Rates(ctx context.Context, req RateRequest) ([]Quote, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(rateBody{Username: c.creds.Username, Password: c.creds.Password, RateRequest: req})
	if err != nil {
		return nil, fmt.Errorf("courier: encode rate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("courier: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	quotes := []Quote{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &quotes); err != nil {
			return nil, fmt.Errorf("%w: decode quotes: %v", ErrUpstream, err)
		}
	}
	return quotes, nil
}

// Attachment is a file sent alongside a booking.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// BookingResult is what the courier returns for an accepted booking.
type BookingResult struct {
	AWB         string `json:"awb_no"`
	ReferenceNo string `json:"reference_no"`
	LabelURL    string `json:"label_url"`
}

// CreateBooking submits an export booking as multipart form data: every
// payload field plus one "documents" part per attachment.
func (c *Client) CreateBooking(ctx context.Context, payload booking.ExternalPayload, files []Attachment) (BookingResult, error) {
	if c.baseURL == "" {
		return BookingResult{}, ErrNotConfigured
	}
	fields, err := payload.FormFields()
	if err != nil {
		return BookingResult{}, fmt.Errorf("courier: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return BookingResult{}, fmt.Errorf("courier: write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("documents", f.Filename)
		if err != nil {
			return BookingResult{}, fmt.Errorf("courier: attach %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return BookingResult{}, fmt.Errorf("courier: attach %s: %w", f.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return BookingResult{}, fmt.Errorf("courier: close form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/booking/create", &buf)
	if err != nil {
		return BookingResult{}, fmt.Errorf("courier: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.do(httpReq)
	if err != nil {
		return BookingResult{}, err
	}
	var result BookingResult
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &result); err != nil {
			return BookingResult{}, fmt.Errorf("%w: decode booking: %v", ErrUpstream, err)
		}
	}
	return result, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(raw), 200))
	}
	if resp.StatusCode >= 300 || !env.ok() {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	return env.Data, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
