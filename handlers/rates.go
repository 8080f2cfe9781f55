package handlers

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/pkg/booking"
	"p9e.in/logibook/pkg/courier"
	"p9e.in/logibook/pkg/rateengine"
)

// domesticRatesReq carries either a whole draft or the explicit inputs.
type domesticRatesReq struct {
	Draft            *booking.Draft `json:"draft"`
	OriginPincode    string         `json:"originPincode"`
	DestPincode      string         `json:"destPincode"`
	ShipmentType     string         `json:"shipmentType"`
	IsCOD            bool           `json:"isCOD"`
	ChargeableWeight booking.Number `json:"chargeableWeight"`
}

func (r domesticRatesReq) query() rateengine.RateQuery {
	if r.Draft != nil {
		return r.Draft.RateQuery()
	}
	return rateengine.RateQuery{
		OriginPincode:    r.OriginPincode,
		DestPincode:      r.DestPincode,
		ShipmentType:     strings.ToUpper(r.ShipmentType),
		IsCOD:            r.IsCOD,
		ChargeableWeight: r.ChargeableWeight.Float(),
	}
}

func validateRateQuery(q rateengine.RateQuery) error {
	return validation.Errors{
		"originPincode":    validation.Validate(strings.TrimSpace(q.OriginPincode), validation.Required, validation.Length(6, 6)),
		"destPincode":      validation.Validate(strings.TrimSpace(q.DestPincode), validation.Required, validation.Length(6, 6)),
		"shipmentType":     validation.Validate(q.ShipmentType, validation.Required, validation.In(string(booking.Document), string(booking.NonDocument))),
		"chargeableWeight": validation.Validate(q.ChargeableWeight, validation.Required, validation.Min(0.0).Exclusive()),
	}.Filter()
}

type domesticRatesResp struct {
	Weights *booking.Weights        `json:"weights,omitempty"`
	Rates   []rateengine.VendorRate `json:"rates"`
}

// DomesticRates quotes every vendor on the rate card for the rate step.
func DomesticRates(w http.ResponseWriter, r *http.Request) {
	var req domesticRatesReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	q := req.query()
	if err := validateRateQuery(q); err != nil {
		writeValidation(w, err)
		return
	}
	resp := domesticRatesResp{Rates: currentRateCard().Generate(q)}
	if req.Draft != nil {
		wt := req.Draft.Weights()
		resp.Weights = &wt
	}
	writeJSON(w, http.StatusOK, resp)
}

type proxyRatesReq struct {
	ServiceType      string         `json:"serviceType"`
	ShipmentType     string         `json:"shipmentType"`
	OriginCountry    string         `json:"originCountry"`
	OriginPincode    string         `json:"originPincode"`
	DestCountry      string         `json:"destCountry"`
	DestZipcode      string         `json:"destZipcode"`
	ChargeableWeight booking.Number `json:"chargeableWeight"`
	Pieces           int            `json:"pieces"`
}

func (r proxyRatesReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ServiceType, validation.Required, validation.In("IMPORT", "EXPORT")),
		validation.Field(&r.ShipmentType, validation.Required, validation.In("DOX", "NDOX")),
		validation.Field(&r.OriginCountry, validation.When(r.ServiceType == "IMPORT", validation.Required)),
		validation.Field(&r.OriginPincode, validation.When(r.ServiceType == "EXPORT", validation.Required)),
		validation.Field(&r.DestCountry, validation.When(r.ServiceType == "EXPORT", validation.Required)),
		validation.Field(&r.ChargeableWeight, validation.Required, validation.Min(booking.Number(0)).Exclusive()),
	)
}

// ProxyRates forwards an import or export rate request to the courier API.
func ProxyRates(w http.ResponseWriter, r *http.Request) {
	var req proxyRatesReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.ServiceType = strings.ToUpper(strings.TrimSpace(req.ServiceType))
	req.ShipmentType = strings.ToUpper(strings.TrimSpace(req.ShipmentType))
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	if req.Pieces < 1 {
		req.Pieces = 1
	}
	originCountry := req.OriginCountry
	if req.ServiceType == "EXPORT" {
		originCountry = "India"
	}

	quotes, err := Courier.Rates(r.Context(), courier.RateRequest{
		ServiceType:      req.ServiceType,
		ShipmentType:     req.ShipmentType,
		OriginCountry:    originCountry,
		OriginPincode:    req.OriginPincode,
		DestCountry:      req.DestCountry,
		DestZipcode:      req.DestZipcode,
		ChargeableWeight: req.ChargeableWeight.Float(),
		Pieces:           req.Pieces,
	})
	if err != nil {
		writeCourierError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rates": quotes})
}

func writeCourierError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, courier.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "courier service is not configured")
	default:
		config.Log.Warn("courier request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
