// Package postal resolves Indian pincodes to city/state through the India Post
// pincode API and lists destination countries through REST Countries. Both
// clients keep an in-memory LRU of answers.
package postal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPincode = errors.New("postal: pincode must be 6 digits")
	ErrNotFound       = errors.New("postal: pincode not found")
	ErrUpstream       = errors.New("postal: lookup service failed")
)

const DefaultPincodeURL = "https://api.postalpincode.in"

var pincodeRE = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Place is what a pincode resolves to.
type Place struct {
	Pincode string   `json:"pincode"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Country string   `json:"country"`
	Offices []string `json:"offices"`
}

type postOffice struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
	Country  string `json:"Country"`
}

type pincodeResponse struct {
	Message    string       `json:"Message"`
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache[string, Place]
}

// NewClient builds a pincode client. An empty baseURL uses the public India
// Post endpoint; a nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client, cacheSize int) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultPincodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, Place](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("postal: create cache: %w", err)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, cache: cache}, nil
}

// Lookup resolves a pincode. Only successful answers are cached.
func (c *Client) Lookup(ctx context.Context, pincode string) (Place, error) {
	pincode = strings.TrimSpace(pincode)
	if !pincodeRE.MatchString(pincode) {
		return Place{}, ErrInvalidPincode
	}
	if p, ok := c.cache.Get(pincode); ok {
		return p, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+pincode, nil)
	if err != nil {
		return Place{}, fmt.Errorf("postal: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Place{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []pincodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(results) == 0 || !strings.EqualFold(results[0].Status, "Success") || len(results[0].PostOffice) == 0 {
		return Place{}, ErrNotFound
	}

	offices := results[0].PostOffice
	place := Place{
		Pincode: pincode,
		City:    offices[0].District,
		State:   offices[0].State,
		Country: offices[0].Country,
		Offices: make([]string, 0, len(offices)),
	}
	for _, o := range offices {
		place.Offices = append(place.Offices, o.Name)
	}
	c.cache.Add(pincode, place)
	return place, nil
}

// Route is the origin and destination of a domestic shipment.
type Route struct {
	Origin      Place `json:"origin"`
	Destination Place `json:"destination"`
}

// LookupRoute resolves both pincodes concurrently. The first failure cancels
// the other lookup.
func (c *Client) LookupRoute(ctx context.Context, origin, dest string) (Route, error) {
	var r Route
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.Lookup(ctx, origin)
		if err != nil {
			return fmt.Errorf("origin %s: %w", origin, err)
		}
		r.Origin = p
		return nil
	})
	g.Go(func() error {
		p, err := c.Lookup(ctx, dest)
		if err != nil {
			return fmt.Errorf("destination %s: %w", dest, err)
		}
		r.Destination = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return Route{}, err
	}
	return r, nil
}
