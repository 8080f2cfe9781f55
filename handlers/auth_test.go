package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"p9e.in/logibook/models"
)

// stubPhoneLookup serves OTP account lookups from users instead of the database.
func stubPhoneLookup(t *testing.T, users ...models.User) {
	t.Helper()
	prev := findUserByPhone
	findUserByPhone = func(phone string) (models.User, error) {
		for _, u := range users {
			if u.Phone == phone {
				return u, nil
			}
		}
		return models.User{}, errors.New("record not found")
	}
	t.Cleanup(func() { findUserByPhone = prev })
}

func TestSendOTP_AccountChecks(t *testing.T) {
	stubPhoneLookup(t, models.User{Name: "Old Account", Phone: "9876500000", IsActive: false})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid phone", `{"phone":"12345"}`, http.StatusUnprocessableEntity},
		{"unknown phone", `{"phone":"9123456789"}`, http.StatusNotFound},
		{"deactivated account", `{"phone":"9876500000"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, SendOTP, "/api/auth/otp/send", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestVerifyOTP_DeactivatedAccountGetsNoToken(t *testing.T) {
	stubPhoneLookup(t, models.User{Name: "Old Account", Phone: "9876500000", IsActive: false})

	rr := postJSON(t, VerifyOTP, "/api/auth/otp/verify", `{"phone":"9876500000","code":"123456"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.NotContains(t, rr.Body.String(), "token")
}

func TestVerifyOTP_BadInput(t *testing.T) {
	stubPhoneLookup(t)

	rr := postJSON(t, VerifyOTP, "/api/auth/otp/verify", `{"phone":"9876500000","code":"12"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, VerifyOTP, "/api/auth/otp/verify", `{"phone":"9876500000","code":"123456"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
