package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/pkg/postal"
)

func writePostalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, postal.ErrInvalidPincode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, postal.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		config.Log.Warn("postal lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func LookupPincode(w http.ResponseWriter, r *http.Request) {
	place, err := Postal.Lookup(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writePostalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// LookupRoute resolves origin and destination pincodes together.
func LookupRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	route, err := Postal.LookupRoute(r.Context(), q.Get("origin"), q.Get("dest"))
	if err != nil {
		writePostalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func ListCountries(w http.ResponseWriter, r *http.Request) {
	names, err := Countries.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		config.Log.Warn("country lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "country list unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"countries": names})
}
