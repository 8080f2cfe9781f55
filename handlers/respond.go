package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"p9e.in/logibook/pkg/booking"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation answers 422 with the offending fields. It accepts a
// booking step error or ozzo validation errors; anything else is a 400.
func writeValidation(w http.ResponseWriter, err error) {
	var se *booking.StepError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":         "validation failed",
			"step":          int(se.Step),
			"missingFields": se.MissingFields(),
		})
		return
	}
	var ve validation.Errors
	if errors.As(err, &ve) {
		fields := map[string]string{}
		for k, v := range ve {
			if v != nil {
				fields[k] = v.Error()
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":         "validation failed",
			"missingFields": fields,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// pagination reads page and limit, defaulting to 1 and 20 and capping limit at 100.
func pagination(r *http.Request) (page, limit, offset int) {
	page, limit = 1, 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, 100)
	}
	return page, limit, (page - 1) * limit
}

type pageMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}
