package handlers

import (
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/rateengine"
)

// activeFuelSurcharges returns the fuel percentage in force per vendor code.
// When several rows overlap the one with the latest EffectiveFrom wins.
var activeFuelSurcharges = func(now time.Time) (map[string]float64, error) {
	var rows []models.FuelSurcharge
	if err := config.DB.Where("is_active = ?", true).Order("effective_from ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return pickFuelSurcharges(rows, now), nil
}

func pickFuelSurcharges(rows []models.FuelSurcharge, now time.Time) map[string]float64 {
	out := map[string]float64{}
	from := map[string]time.Time{}
	for i := range rows {
		fs := &rows[i]
		if !fs.ActiveAt(now) {
			continue
		}
		code := strings.ToUpper(fs.VendorCode)
		if t, ok := from[code]; ok && t.After(time.Time(fs.EffectiveFrom)) {
			continue
		}
		from[code] = time.Time(fs.EffectiveFrom)
		out[code] = fs.Percentage
	}
	return out
}

// currentRateCard is the configured card with today's fuel surcharges.
func currentRateCard() rateengine.RateCard {
	pcts, err := activeFuelSurcharges(time.Now())
	if err != nil {
		config.Log.Warn("fuel surcharges unavailable, using card default", zap.Error(err))
		return RateCard
	}
	return RateCard.WithFuelSurcharges(pcts)
}

type fuelSurchargeReq struct {
	VendorCode    string           `json:"vendorCode"`
	Percentage    *float64         `json:"percentage"`
	EffectiveFrom models.JSONTime  `json:"effectiveFrom"`
	EffectiveTo   *models.JSONTime `json:"effectiveTo"`
	IsActive      *bool            `json:"isActive"`
}

func (r fuelSurchargeReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VendorCode, validation.Required, validation.By(knownVendor)),
		validation.Field(&r.Percentage, validation.NotNil, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&r.EffectiveFrom, validation.By(func(v interface{}) error {
			if time.Time(v.(models.JSONTime)).IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
		validation.Field(&r.EffectiveTo, validation.By(func(v interface{}) error {
			to, _ := v.(*models.JSONTime)
			if to != nil && !time.Time(*to).After(time.Time(r.EffectiveFrom)) {
				return validation.NewError("validation_effective_to", "must be after effectiveFrom")
			}
			return nil
		})),
	)
}

func knownVendor(v interface{}) error {
	code, _ := v.(string)
	for _, vendor := range RateCard.Vendors {
		if strings.EqualFold(vendor.Code, code) {
			return nil
		}
	}
	return validation.NewError("validation_unknown_vendor", "unknown vendor")
}

func ListFuelSurcharges(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.FuelSurcharge{})
	if v := strings.ToUpper(r.URL.Query().Get("vendor")); v != "" {
		q = q.Where("vendor_code = ?", v)
	}
	var rows []models.FuelSurcharge
	if err := q.Order("vendor_code ASC, effective_from DESC").Find(&rows).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch fuel surcharges")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"surcharges": rows,
		"active":     pickFuelSurcharges(rows, time.Now()),
	})
}

func CreateFuelSurcharge(w http.ResponseWriter, r *http.Request) {
	var req fuelSurchargeReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	fs := models.FuelSurcharge{
		VendorCode:    strings.ToUpper(req.VendorCode),
		Percentage:    *req.Percentage,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if err := config.DB.Create(&fs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create fuel surcharge")
		return
	}
	config.Log.Info("fuel surcharge created", zap.String("vendor", fs.VendorCode), zap.Float64("pct", fs.Percentage))
	writeJSON(w, http.StatusCreated, fs)
}

// UpdateFuelSurcharge replaces every field of an existing surcharge.
func UpdateFuelSurcharge(w http.ResponseWriter, r *http.Request) {
	var fs models.FuelSurcharge
	if err := config.DB.First(&fs, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "fuel surcharge not found")
		return
	}
	var req fuelSurchargeReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	fs.VendorCode = strings.ToUpper(req.VendorCode)
	fs.Percentage = *req.Percentage
	fs.EffectiveFrom = req.EffectiveFrom
	fs.EffectiveTo = req.EffectiveTo
	if req.IsActive != nil {
		fs.IsActive = *req.IsActive
	}
	if err := config.DB.Save(&fs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update fuel surcharge")
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func DeleteFuelSurcharge(w http.ResponseWriter, r *http.Request) {
	res := config.DB.Delete(&models.FuelSurcharge{}, "id = ?", mux.Vars(r)["id"])
	if res.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete fuel surcharge")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "fuel surcharge not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
