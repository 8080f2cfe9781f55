package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"p9e.in/logibook/config"
	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/storage"
)

var (
	udyamRE = regexp.MustCompile(`^UDYAM-[A-Z]{2}-[0-9]{2}-[0-9]{7}$`)
	panRE   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

var msmeCategories = []interface{}{"MICRO", "SMALL", "MEDIUM"}

type msmeForm struct {
	EnterpriseName string
	UdyamNumber    string
	Category       string
	PAN            string
}

func (f msmeForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.EnterpriseName, validation.Required, validation.Length(2, 200)),
		validation.Field(&f.UdyamNumber, validation.Required, validation.Match(udyamRE)),
		validation.Field(&f.Category, validation.Required, validation.In(msmeCategories...)),
		validation.Field(&f.PAN, validation.Match(panRE)),
	)
}

// SubmitMSME registers (or resubmits after rejection) the customer's Udyam
// details with a certificate upload.
func SubmitMSME(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartSize)
	if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	form := msmeForm{
		EnterpriseName: strings.TrimSpace(r.FormValue("enterpriseName")),
		UdyamNumber:    strings.ToUpper(strings.TrimSpace(r.FormValue("udyamNumber"))),
		Category:       strings.ToUpper(strings.TrimSpace(r.FormValue("category"))),
		PAN:            strings.ToUpper(strings.TrimSpace(r.FormValue("pan"))),
	}
	if err := form.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	_, fh, err := r.FormFile("certificate")
	if err != nil {
		writeValidation(w, validation.Errors{"certificate": validation.ErrRequired})
		return
	}

	var existing models.MSMERegistration
	err = config.DB.Where("user_id = ?", userID).First(&existing).Error
	if err == nil && existing.Status != models.MSMERejected {
		writeError(w, http.StatusConflict, "registration already "+strings.ToLower(existing.Status))
		return
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to load registration")
		return
	}

	obj, err := saveUpload(r.Context(), fh)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reg := existing
	reg.UserID = userID
	reg.EnterpriseName = form.EnterpriseName
	reg.UdyamNumber = form.UdyamNumber
	reg.Category = form.Category
	reg.PAN = form.PAN
	reg.CertificateURL = obj.URL
	reg.Status = models.MSMEPending
	reg.RejectionReason = ""
	reg.ReviewedBy = nil
	reg.ReviewedAt = nil
	if err := config.DB.Save(&reg).Error; err != nil {
		config.Log.Error("save msme registration", zap.Error(err))
		discardUploads(r.Context(), []storage.Object{obj})
		if strings.Contains(err.Error(), "duplicate key") {
			writeError(w, http.StatusConflict, "udyam number already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save registration")
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// GetMyMSME returns the customer's registration and its review status.
func GetMyMSME(w http.ResponseWriter, r *http.Request) {
	var reg models.MSMERegistration
	if err := config.DB.Where("user_id = ?", middleware.GetUserID(r)).First(&reg).Error; err != nil {
		writeError(w, http.StatusNotFound, "no MSME registration")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

func ListMSME(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)
	q := config.DB.Model(&models.MSMERegistration{})
	if status := strings.ToUpper(r.URL.Query().Get("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count registrations")
		return
	}
	var regs []models.MSMERegistration
	if err := q.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&regs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch registrations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": regs,
		"pagination":    pageMeta{Page: page, Limit: limit, Total: total},
	})
}

type msmeReviewReq struct {
	Reason string `json:"reason"`
}

func ApproveMSME(w http.ResponseWriter, r *http.Request) {
	reviewMSME(w, r, models.MSMEApproved, "")
}

// RejectMSME requires a reason, shown to the customer.
func RejectMSME(w http.ResponseWriter, r *http.Request) {
	var req msmeReviewReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		writeValidation(w, validation.Errors{"reason": validation.ErrRequired})
		return
	}
	reviewMSME(w, r, models.MSMERejected, reason)
}

func reviewMSME(w http.ResponseWriter, r *http.Request, status, reason string) {
	var reg models.MSMERegistration
	if err := config.DB.First(&reg, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "registration not found")
		return
	}
	if reg.Status != models.MSMEPending {
		writeError(w, http.StatusConflict, "registration already reviewed")
		return
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":           status,
		"rejection_reason": reason,
		"reviewed_at":      now,
	}
	if adminID, err := uuid.Parse(middleware.GetUserID(r)); err == nil {
		updates["reviewed_by"] = adminID
	}
	if err := config.DB.Model(&reg).Updates(updates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update registration")
		return
	}
	config.DB.First(&reg, "id = ?", reg.ID)
	config.Log.Info("msme reviewed", zap.String("id", reg.ID.String()), zap.String("status", status))
	writeJSON(w, http.StatusOK, reg)
}
