package handlers

import (
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"
	"p9e.in/logibook/config"
	"p9e.in/logibook/models"
)

var permissionRE = regexp.MustCompile(`^(\*|[a-z_]+:(\*|[a-z_]+))$`)

func ListAdmins(w http.ResponseWriter, r *http.Request) {
	var admins []models.Admin
	if err := config.DB.Order("created_at ASC").Find(&admins).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch admins")
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

type createAdminReq struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (r createAdminReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Role, validation.In(models.AdminRoleAdmin, models.AdminRoleSuper)),
		validation.Field(&r.Permissions, validation.Each(validation.Match(permissionRE))),
	)
}

// CreateAdmin adds a back-office account with an explicit permission list.
func CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.AdminRoleAdmin
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error hashing password")
		return
	}
	a := models.Admin{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Permissions:  req.Permissions,
		IsActive:     true,
	}
	if err := config.DB.Create(&a).Error; err != nil {
		writeError(w, http.StatusConflict, "admin already exists")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
