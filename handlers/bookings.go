package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"p9e.in/logibook/config"
	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/booking"
	"p9e.in/logibook/pkg/courier"
	"p9e.in/logibook/pkg/events"
	"p9e.in/logibook/pkg/export"
	"p9e.in/logibook/pkg/rateengine"
	"p9e.in/logibook/pkg/storage"
	"p9e.in/logibook/utils"
)

const (
	PaymentPrepaid = "prepaid"
	PaymentWallet  = "wallet"

	maxExportRows = 5000
)

var errUnknownVendor = validation.NewError("validation_unknown_vendor", "vendor is not on the rate card")

type validateResp struct {
	Valid   bool            `json:"valid"`
	Step    int             `json:"step"`
	Weights booking.Weights `json:"weights"`
	Pieces  int             `json:"pieces"`
}

// ValidateBookingStep checks one wizard step of a draft sent as JSON.
func ValidateBookingStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "step must be a number")
		return
	}
	var d booking.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := booking.ValidateStep(&d, booking.Step(n)); err != nil {
		if errors.Is(err, booking.ErrUnknownStep) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("step %d is not part of the %s flow", n, d.Flow))
			return
		}
		writeValidation(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResp{Valid: true, Step: n, Weights: d.Weights(), Pieces: d.Pieces()})
}

// pendingFile is a multipart upload assigned to a document row but not yet
// stored.
type pendingFile struct {
	row int
	fh  *multipart.FileHeader
}

// parseBookingForm reads the "booking" JSON field and the "documents" files.
func parseBookingForm(w http.ResponseWriter, r *http.Request) (*booking.Draft, []*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartSize)
	if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
		return nil, nil, fmt.Errorf("bad multipart form: %w", err)
	}
	raw := r.FormValue("booking")
	if strings.TrimSpace(raw) == "" {
		return nil, nil, errors.New("missing booking field")
	}
	var d booking.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, nil, fmt.Errorf("invalid booking JSON: %w", err)
	}
	if d.Extra.Units.Dimension == "" {
		d.Extra.Units.Dimension = rateengine.UnitCM
	}
	if d.Extra.Units.Weight == "" {
		d.Extra.Units.Weight = rateengine.UnitKG
	}
	return &d, r.MultipartForm.File["documents"], nil
}

// attachFiles gives each document row without an uploaded file the next
// multipart file, in order. Leftover files become OTHER rows named after the
// file. Rows get a placeholder URL until the files are stored.
func attachFiles(d *booking.Draft, files []*multipart.FileHeader) []pendingFile {
	var pending []pendingFile
	next := 0
	for i := range d.Addresses.Documents {
		doc := &d.Addresses.Documents[i]
		if next >= len(files) {
			break
		}
		if doc.File != nil && strings.TrimSpace(doc.File.URL) != "" {
			continue
		}
		doc.File = &booking.FileRef{Name: files[next].Filename, URL: "pending:" + files[next].Filename, Size: files[next].Size}
		pending = append(pending, pendingFile{row: i, fh: files[next]})
		next++
	}
	for ; next < len(files); next++ {
		fh := files[next]
		d.Addresses.Documents = append(d.Addresses.Documents, booking.DocumentRow{
			Type:      booking.DocTypeOther,
			OtherName: fh.Filename,
			File:      &booking.FileRef{Name: fh.Filename, URL: "pending:" + fh.Filename, Size: fh.Size},
		})
		pending = append(pending, pendingFile{row: len(d.Addresses.Documents) - 1, fh: fh})
	}
	return pending
}

// storePending saves the pending files and points their rows at the stored
// objects. Files stored before a failure are removed again.
func storePending(ctx context.Context, d *booking.Draft, pending []pendingFile) ([]storage.Object, error) {
	objs := make([]storage.Object, 0, len(pending))
	for _, p := range pending {
		obj, err := saveUpload(ctx, p.fh)
		if err != nil {
			discardUploads(ctx, objs)
			return nil, err
		}
		objs = append(objs, obj)
		d.Addresses.Documents[p.row].File = &booking.FileRef{Name: obj.Name, URL: obj.URL, Size: obj.Size}
	}
	return objs, nil
}

func logOrphans(objs []storage.Object, cause error) {
	for _, o := range objs {
		config.Log.Warn("orphaned upload", zap.String("file", o.Name), zap.NamedError("cause", cause))
	}
}

func documentURLs(d *booking.Draft) []string {
	urls := []string{}
	for _, doc := range d.Addresses.Documents {
		if doc.File != nil && doc.File.URL != "" {
			urls = append(urls, doc.File.URL)
		}
	}
	return urls
}

// newBookingNo returns "LB-YYYYMMDD-XXXXXX".
func newBookingNo(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "LB-" + now.Format("20060102") + "-" + id[:6]
}

// newBookingRecord fills the listing columns of a booking from the draft.
func newBookingRecord(d *booking.Draft, userID uuid.UUID, payload interface{}) (models.Booking, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Booking{}, fmt.Errorf("encode payload: %w", err)
	}
	wt := d.Weights()
	s := d.Shipment
	b := models.Booking{
		BookingNo:        newBookingNo(time.Now()),
		UserID:           userID,
		Flow:             string(d.Flow),
		ShipmentType:     string(s.Type),
		Status:           models.BookingCreated,
		OriginPincode:    s.OriginPincode,
		OriginCity:       s.OriginCity,
		DestPincode:      s.DestPincode,
		DestCity:         s.DestCity,
		DestCountry:      "India",
		SenderName:       d.Addresses.Sender.Name,
		ReceiverName:     d.Addresses.Receiver.Name,
		Pieces:           d.Pieces(),
		ActualWeight:     wt.Actual,
		VolumetricWeight: wt.Volumetric,
		ChargeableWeight: wt.Chargeable,
		PaymentMode:      strings.ToLower(strOrDefault(d.PaymentMode, PaymentPrepaid)),
		IsCOD:            d.Extra.IsCOD,
		Payload:          datatypes.JSON(raw),
		DocumentURLs:     documentURLs(d),
	}
	if d.Extra.IsCOD {
		b.CODAmount = d.Extra.CODAmount.Float()
	}
	if d.Flow.International() {
		b.DestPincode = s.DestZipcode
		b.DestCity = d.Addresses.Receiver.City
		b.DestCountry = s.DestCountry
	}
	if r := d.SelectedRate; r != nil {
		b.VendorCode = r.VendorCode
		b.VendorName = r.VendorName
		b.Amount = r.Price
	}
	return b, nil
}

func strOrDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}

// repriceSelected replaces the client's selected rate with a fresh quote from
// the current rate card for the same vendor.
func repriceSelected(d *booking.Draft) error {
	if d.SelectedRate == nil {
		return nil
	}
	rate, ok := rateengine.Find(currentRateCard().Generate(d.RateQuery()), d.SelectedRate.VendorCode)
	if !ok {
		return &booking.StepError{Step: booking.StepRate, Fields: validation.Errors{"selectedRate": errUnknownVendor}}
	}
	d.SelectedRate = &rate
	return nil
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var se *booking.StepError
	switch {
	case errors.As(err, &se):
		writeValidation(w, err)
	case errors.Is(err, booking.ErrUnknownFlow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, "insufficient wallet balance")
	case errors.Is(err, errUnsupportedType), errors.Is(err, errTooLarge), errors.Is(err, storage.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, courier.ErrNotConfigured), errors.Is(err, courier.ErrUpstream):
		writeCourierError(w, err)
	default:
		config.Log.Error("booking submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create booking")
	}
}

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(middleware.GetUserID(r))
}

// CreateDomesticBooking validates every wizard step, stores the documents
// and saves the booking. Wallet payments are debited in the same transaction.
func CreateDomesticBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user")
		return
	}
	d, files, err := parseBookingForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if d.Flow == "" {
		d.Flow = booking.FlowDomestic
	}
	if d.Flow != booking.FlowDomestic {
		writeError(w, http.StatusBadRequest, "flow must be domestic")
		return
	}
	d.PaymentMode = strings.ToLower(strOrDefault(d.PaymentMode, PaymentPrepaid))
	if d.PaymentMode != PaymentPrepaid && d.PaymentMode != PaymentWallet {
		writeValidation(w, validation.Errors{"paymentMode": validation.NewError("validation_payment_mode", "must be prepaid or wallet")})
		return
	}
	pending := attachFiles(d, files)
	if err := repriceSelected(d); err != nil {
		writeSubmitError(w, err)
		return
	}

	ctx := r.Context()
	var created models.Booking
	err = booking.Complete(d, func(d *booking.Draft) error {
		objs, err := storePending(ctx, d, pending)
		if err != nil {
			return err
		}
		b, err := newBookingRecord(d, userID, booking.BuildDomesticBookingPayload(d))
		if err != nil {
			return err
		}
		err = config.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&b).Error; err != nil {
				return fmt.Errorf("insert booking: %w", err)
			}
			if b.PaymentMode == PaymentWallet {
				if _, err := debitWallet(tx, userID, b.Amount, &b.ID, b.BookingNo); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logOrphans(objs, err)
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	announceBooking(ctx, created, d.Addresses.Sender)
	writeJSON(w, http.StatusCreated, created)
}

// CreateExportBooking submits an export draft to the courier API and saves
// the accepted booking with its AWB.
func CreateExportBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user")
		return
	}
	d, files, err := parseBookingForm(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if d.Flow == "" {
		d.Flow = booking.FlowExport
	}
	if d.Flow != booking.FlowExport {
		writeError(w, http.StatusBadRequest, "flow must be export")
		return
	}
	d.PaymentMode = PaymentPrepaid
	pending := attachFiles(d, files)

	ctx := r.Context()
	var created models.Booking
	err = booking.Complete(d, func(d *booking.Draft) error {
		objs, err := storePending(ctx, d, pending)
		if err != nil {
			return err
		}
		payload := booking.BuildExternalBookingPayload(d, Courier.Credentials())

		attachments := make([]courier.Attachment, 0, len(pending))
		for _, p := range pending {
			f, err := p.fh.Open()
			if err != nil {
				discardUploads(ctx, objs)
				return fmt.Errorf("reopen %s: %w", p.fh.Filename, err)
			}
			defer f.Close()
			attachments = append(attachments, courier.Attachment{Filename: p.fh.Filename, Content: f})
		}

		result, err := Courier.CreateBooking(ctx, payload, attachments)
		if err != nil {
			// Nothing was booked, so the documents have no owner.
			discardUploads(ctx, objs)
			return err
		}
		b, err := newBookingRecord(d, userID, payload.Redacted())
		if err != nil {
			return err
		}
		b.Status = models.BookingBooked
		b.AWB = result.AWB
		if resp, err := json.Marshal(result); err == nil {
			b.CourierResponse = datatypes.JSON(resp)
		}
		if err := config.DB.Create(&b).Error; err != nil {
			logOrphans(objs, err)
			config.Log.Error("courier booking not recorded", zap.String("awb", result.AWB), zap.Error(err))
			return fmt.Errorf("insert booking: %w", err)
		}
		created = b
		return nil
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	announceBooking(ctx, created, d.Addresses.Sender)
	writeJSON(w, http.StatusCreated, created)
}

// announceBooking publishes the created event and queues the confirmation
// after the response has been written. Both are best effort.
func announceBooking(ctx context.Context, b models.Booking, sender booking.Party) {
	goAnnounce(ctx, func(ctx context.Context) {
		publishCreated(ctx, b)
		confirmBooking(ctx, b, sender)
	})
}

func publishCreated(ctx context.Context, b models.Booking) {
	err := Events.PublishBooking(ctx, events.BookingEvent{
		Type:       events.TypeBookingCreated,
		BookingID:  b.ID.String(),
		BookingNo:  b.BookingNo,
		UserID:     b.UserID.String(),
		Flow:       b.Flow,
		Status:     b.Status,
		AWB:        b.AWB,
		VendorCode: b.VendorCode,
		Amount:     b.Amount,
		OccurredAt: b.CreatedAt,
	})
	if err != nil {
		config.Log.Warn("publish booking event", zap.String("booking", b.BookingNo), zap.Error(err))
	}
}

func confirmBooking(ctx context.Context, b models.Booking, sender booking.Party) {
	to := sender.Phone
	channel := "sms"
	if sender.Email != "" {
		to, channel = sender.Email, "email"
	}
	err := Notifier.Notify(ctx, events.Notification{
		Channel:  channel,
		To:       to,
		Template: events.TemplateBookingConfirmed,
		Data: map[string]string{
			"bookingNo": b.BookingNo,
			"awb":       b.AWB,
			"amount":    strconv.FormatFloat(b.Amount, 'f', 2, 64),
		},
		CreatedAt: time.Now(),
	})
	if err != nil {
		config.Log.Warn("queue booking confirmation", zap.String("booking", b.BookingNo), zap.Error(err))
	}
}

// bookingFilters applies the list filters shared by the customer list, the
// admin list and the xlsx export.
func bookingFilters(q *gorm.DB, r *http.Request) *gorm.DB {
	v := r.URL.Query()
	if s := strings.ToUpper(v.Get("status")); s != "" {
		q = q.Where("status = ?", s)
	}
	if f := strings.ToLower(v.Get("flow")); f != "" {
		q = q.Where("flow = ?", f)
	}
	if from, err := time.Parse(time.DateOnly, v.Get("from")); err == nil {
		q = q.Where("created_at >= ?", from)
	}
	if to, err := time.Parse(time.DateOnly, v.Get("to")); err == nil {
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(v.Get("search")); s != "" {
		like := "%" + strings.ToUpper(s) + "%"
		q = q.Where("UPPER(booking_no) LIKE ? OR UPPER(awb) LIKE ? OR UPPER(receiver_name) LIKE ?", like, like, like)
	}
	return q
}

func listBookings(w http.ResponseWriter, r *http.Request, q *gorm.DB) {
	page, limit, offset := pagination(r)
	q = bookingFilters(q, r)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count bookings")
		return
	}
	var list []models.Booking
	if err := q.Omit("payload", "courier_response").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookings":   list,
		"pagination": pageMeta{Page: page, Limit: limit, Total: total},
	})
}

// ListMyBookings lists the logged-in customer's bookings.
func ListMyBookings(w http.ResponseWriter, r *http.Request) {
	listBookings(w, r, config.DB.Model(&models.Booking{}).Where("user_id = ?", middleware.GetUserID(r)))
}

func AdminListBookings(w http.ResponseWriter, r *http.Request) {
	q := config.DB.Model(&models.Booking{})
	if u := r.URL.Query().Get("userId"); u != "" {
		q = q.Where("user_id = ?", u)
	}
	listBookings(w, r, q)
}

func findOwnBooking(r *http.Request) (models.Booking, error) {
	var b models.Booking
	err := config.DB.Where("id = ? AND user_id = ?", mux.Vars(r)["id"], middleware.GetUserID(r)).First(&b).Error
	return b, err
}

func GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := findOwnBooking(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func AdminGetBooking(w http.ResponseWriter, r *http.Request) {
	var b models.Booking
	if err := config.DB.First(&b, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type bookingStatusReq struct {
	Status  string  `json:"status"`
	AWB     *string `json:"awb"`
	Remarks *string `json:"remarks"`
}

func (r bookingStatusReq) Validate() error {
	statuses := make([]interface{}, len(models.BookingStatuses))
	for i, s := range models.BookingStatuses {
		statuses[i] = s
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(statuses...)),
		validation.Field(&r.AWB, validation.Length(0, 40)),
		validation.Field(&r.Remarks, validation.Length(0, 500)),
	)
}

// UpdateBookingStatus lets an admin move a booking along and set its AWB.
func UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var b models.Booking
	if err := config.DB.First(&b, "id = ?", mux.Vars(r)["id"]).Error; err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	var req bookingStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	if b.Status == models.BookingCancelled || b.Status == models.BookingDelivered {
		writeError(w, http.StatusConflict, "booking is already "+strings.ToLower(b.Status))
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.AWB != nil {
		updates["awb"] = strings.TrimSpace(*req.AWB)
	}
	if req.Remarks != nil {
		updates["remarks"] = strings.TrimSpace(*req.Remarks)
	}
	if err := config.DB.Model(&b).Updates(updates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if err := config.DB.First(&b, "id = ?", b.ID).Error; err != nil {
		config.Log.Warn("reload booking after status update", zap.String("booking", b.BookingNo), zap.Error(err))
		b.Status = req.Status
		if req.AWB != nil {
			b.AWB = strings.TrimSpace(*req.AWB)
		}
	}

	event := events.BookingEvent{
		Type:       events.TypeBookingStatusChanged,
		BookingID:  b.ID.String(),
		BookingNo:  b.BookingNo,
		UserID:     b.UserID.String(),
		Flow:       b.Flow,
		Status:     b.Status,
		AWB:        b.AWB,
		VendorCode: b.VendorCode,
		Amount:     b.Amount,
		OccurredAt: time.Now(),
	}
	goAnnounce(r.Context(), func(ctx context.Context) {
		if err := Events.PublishBooking(ctx, event); err != nil {
			config.Log.Warn("publish status change", zap.String("booking", event.BookingNo), zap.Error(err))
		}
	})
	writeJSON(w, http.StatusOK, b)
}

func toExportRow(b models.Booking) export.BookingRow {
	return export.BookingRow{
		BookingNo:        b.BookingNo,
		CreatedAt:        b.CreatedAt,
		Flow:             b.Flow,
		ShipmentType:     b.ShipmentType,
		Status:           b.Status,
		AWB:              b.AWB,
		SenderName:       b.SenderName,
		OriginCity:       b.OriginCity,
		ReceiverName:     b.ReceiverName,
		DestinationCity:  b.DestCity,
		Pieces:           b.Pieces,
		ChargeableWeight: b.ChargeableWeight,
		VendorName:       b.VendorName,
		Amount:           b.Amount,
		PaymentMode:      b.PaymentMode,
	}
}

// ExportBookings writes the filtered bookings to an xlsx download.
func ExportBookings(w http.ResponseWriter, r *http.Request) {
	var list []models.Booking
	q := bookingFilters(config.DB.Model(&models.Booking{}), r)
	if err := q.Omit("payload", "courier_response").Order("created_at DESC").Limit(maxExportRows).Find(&list).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch bookings")
		return
	}
	rows := make([]export.BookingRow, len(list))
	for i, b := range list {
		rows[i] = toExportRow(b)
	}
	now := time.Now()
	buf, err := export.BookingsWorkbook(config.Env.CompanyName+" bookings", rows, now)
	if err != nil {
		config.Log.Error("bookings workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings-%s.xlsx"`, now.Format("20060102-150405")))
	w.Write(buf.Bytes())
}

// storedPayload is the part of either payload shape a receipt needs.
type storedPayload struct {
	Sender    booking.Party         `json:"sender"`
	Receiver  booking.Party         `json:"receiver"`
	Vendor    booking.PayloadVendor `json:"vendor"`
	Shipper   booking.ExternalParty `json:"shipper"`
	Consignee booking.ExternalParty `json:"consignee"`
}

func receiptParty(p booking.Party) export.ReceiptParty {
	addr := p.AddressLine1
	if p.AddressLine2 != "" {
		addr += ", " + p.AddressLine2
	}
	return export.ReceiptParty{
		Name: p.Name, Phone: p.Phone, Address: addr,
		City: p.City, Pincode: p.Pincode, Country: strOrDefault(p.Country, "India"),
	}
}

func receiptExternalParty(p booking.ExternalParty) export.ReceiptParty {
	addr := p.Address1
	if p.Address2 != "" && p.Address2 != "NA" {
		addr += ", " + p.Address2
	}
	return export.ReceiptParty{
		Name: p.Name, Phone: p.Phone, Address: addr,
		City: p.City, Pincode: p.Pincode, Country: p.Country,
	}
}

// buildReceipt assembles the printable receipt from a stored booking.
func buildReceipt(b models.Booking, company string) (export.Receipt, error) {
	var sp storedPayload
	if len(b.Payload) > 0 {
		if err := json.Unmarshal(b.Payload, &sp); err != nil {
			return export.Receipt{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	rc := export.Receipt{
		CompanyName:      company,
		BookingNo:        b.BookingNo,
		AWB:              b.AWB,
		CreatedAt:        b.CreatedAt,
		Flow:             b.Flow,
		ShipmentType:     b.ShipmentType,
		Status:           b.Status,
		Pieces:           b.Pieces,
		ActualWeight:     b.ActualWeight,
		VolumetricWeight: b.VolumetricWeight,
		ChargeableWeight: b.ChargeableWeight,
		VendorName:       b.VendorName,
		TAT:              sp.Vendor.TAT,
		Total:            b.Amount,
		PaymentMode:      b.PaymentMode,
	}
	if b.Flow == string(booking.FlowExport) {
		rc.Sender = receiptExternalParty(sp.Shipper)
		rc.Receiver = receiptExternalParty(sp.Consignee)
	} else {
		rc.Sender = receiptParty(sp.Sender)
		rc.Receiver = receiptParty(sp.Receiver)
	}
	for _, c := range sp.Vendor.Breakup {
		rc.Charges = append(rc.Charges, export.ReceiptCharge{Label: c.Label, Amount: c.Amount})
	}
	return rc, nil
}

// BookingReceipt renders the customer's booking as a PDF.
func BookingReceipt(w http.ResponseWriter, r *http.Request) {
	b, err := findOwnBooking(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	rc, err := buildReceipt(b, config.Env.CompanyName)
	if err != nil {
		config.Log.Error("receipt", zap.String("booking", b.BookingNo), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build receipt")
		return
	}
	pdf, err := export.ReceiptPDF(rc)
	if err != nil {
		config.Log.Error("receipt pdf", zap.String("booking", b.BookingNo), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build receipt")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, b.BookingNo))
	w.Write(pdf)
}

// AdminBookingStats returns booking counts and amounts grouped by day, week
// or month for the filtered bookings. Cancelled and failed bookings are left out.
func AdminBookingStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	if period != "day" && period != "week" && period != "month" {
		writeError(w, http.StatusBadRequest, "period must be day, week or month")
		return
	}
	var rows []struct {
		CreatedAt time.Time
		Amount    float64
	}
	q := bookingFilters(config.DB.Model(&models.Booking{}), r).
		Where("status NOT IN ?", []string{models.BookingCancelled, models.BookingFailed})
	if err := q.Select("created_at", "amount").Order("created_at ASC").Scan(&rows).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	points := make([]utils.BookingPoint, len(rows))
	for i, row := range rows {
		points[i] = utils.BookingPoint{At: row.CreatedAt, Amount: row.Amount}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period": period,
		"series": utils.GroupBookings(points, period),
	})
}
