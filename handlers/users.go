package handlers

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/models"
)

// ListUsers returns customers, newest first, optionally filtered by a
// search term matched against name, email, phone and company.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)
	q := config.DB.Model(&models.User{})
	if s := strings.TrimSpace(r.URL.Query().Get("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR LOWER(company_name) LIKE ?",
			like, like, like, like)
	}
	switch r.URL.Query().Get("active") {
	case "true":
		q = q.Where("is_active = ?", true)
	case "false":
		q = q.Where("is_active = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count users")
		return
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": pageMeta{Page: page, Limit: limit, Total: total},
	})
}

func GetUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := config.DB.First(&u, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateUserReq struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"companyName"`
	GSTIN       *string `json:"gstin"`
	IsActive    *bool   `json:"isActive"`
}

func (r updateUserReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.Phone, validation.NilOrNotEmpty, validation.Match(phoneRE)),
		validation.Field(&r.GSTIN, validation.Length(15, 15)),
	)
}

// UpdateUser applies a partial update to a customer account.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := config.DB.First(&u, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	var req updateUserReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.CompanyName != nil {
		updates["company_name"] = strings.TrimSpace(*req.CompanyName)
	}
	if req.GSTIN != nil {
		updates["gstin"] = strings.ToUpper(strings.TrimSpace(*req.GSTIN))
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if err := config.DB.Model(&u).Updates(updates).Error; err != nil {
		config.Log.Error("update user", zap.String("id", u.ID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	config.DB.First(&u, "id = ?", u.ID)
	writeJSON(w, http.StatusOK, u)
}

// DeactivateUser disables login for a customer. Bookings are kept.
func DeactivateUser(w http.ResponseWriter, r *http.Request) {
	res := config.DB.Model(&models.User{}).Where("id = ?", mux.Vars(r)["id"]).Update("is_active", false)
	if res.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to deactivate user")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}
