package postal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountries_List(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/all", r.URL.Path)
		assert.Equal(t, "name", r.URL.Query().Get("fields"))
		fmt.Fprint(w, `[{"name":{"common":"United Kingdom"}},{"name":{"common":"Germany"}},
			{"name":{"common":"United States"}},{"name":{"common":" "}}]`)
	}))
	defer srv.Close()

	c, err := NewCountries(srv.URL, srv.Client())
	require.NoError(t, err)

	all, err := c.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany", "United Kingdom", "United States"}, all)

	united, err := c.List(context.Background(), "UNITED")
	require.NoError(t, err)
	assert.Equal(t, []string{"United Kingdom", "United States"}, united)

	none, err := c.List(context.Background(), "atlantis")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 1, hits)
}

func TestCountries_Upstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewCountries(srv.URL, srv.Client())
	require.NoError(t, err)
	_, err = c.List(context.Background(), "in")
	assert.ErrorIs(t, err, ErrUpstream)
}
