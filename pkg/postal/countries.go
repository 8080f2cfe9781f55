package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCountriesURL = "https://restcountries.com/v3.1"

const countriesKey = "all"

type countryResponse struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
}

// Countries lists country names for the export destination picker.
type Countries struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache[string, []string]
}

func NewCountries(baseURL string, httpClient *http.Client) (*Countries, error) {
	if baseURL == "" {
		baseURL = DefaultCountriesURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cache, err := lru.New[string, []string](1)
	if err != nil {
		return nil, fmt.Errorf("postal: create cache: %w", err)
	}
	return &Countries{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, cache: cache}, nil
}

// List returns the sorted country names containing query, case-insensitively.
// An empty query returns every country.
func (c *Countries) List(ctx context.Context, query string) ([]string, error) {
	all, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]string(nil), all...), nil
	}
	out := []string{}
	for _, name := range all {
		if strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (c *Countries) all(ctx context.Context) ([]string, error) {
	if names, ok := c.cache.Get(countriesKey); ok {
		return names, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/all?fields=name", nil)
	if err != nil {
		return nil, fmt.Errorf("postal: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw []countryResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		if n := strings.TrimSpace(r.Name.Common); n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	c.cache.Add(countriesKey, names)
	return names, nil
}
