// handlers/auth.go
package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/logibook/config"
	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/events"
)

const (
	otpLength      = 6
	otpTTL         = 5 * time.Minute
	otpResendAfter = 30 * time.Second
	otpMaxAttempts = 5
)

var phoneRE = regexp.MustCompile(`^[6-9][0-9]{9}$`)

type registerReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
	GSTIN       string `json:"gstin"`
}

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Required, validation.Match(phoneRE)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.GSTIN, validation.Length(15, 15)),
	)
}

type userPayload struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	CompanyName   string  `json:"companyName,omitempty"`
	PhoneVerified bool    `json:"phoneVerified"`
	WalletBalance float64 `json:"walletBalance"`
}

func toUserPayload(u models.User) userPayload {
	return userPayload{
		ID:            u.ID.String(),
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		CompanyName:   u.CompanyName,
		PhoneVerified: u.PhoneVerified,
		WalletBalance: u.WalletBalance,
	}
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func customerToken(u models.User) (string, error) {
	return middleware.GenerateToken(middleware.Claims{
		UserID: u.ID.String(),
		Name:   u.Name,
		Phone:  u.Phone,
		Email:  u.Email,
		Kind:   middleware.KindCustomer,
	})
}

func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error hashing password")
		return
	}
	u := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		CompanyName:  strings.TrimSpace(req.CompanyName),
		GSTIN:        strings.ToUpper(strings.TrimSpace(req.GSTIN)),
		IsActive:     true,
	}
	if err := config.DB.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			writeError(w, http.StatusConflict, "email or phone already registered")
			return
		}
		config.Log.Error("register user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	token, err := customerToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}
	writeJSON(w, http.StatusCreated, loginResp{Token: token, User: toUserPayload(u)})
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

// Login accepts an email or phone number with the password.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id := strings.TrimSpace(req.Identifier)
	if id == "" {
		id = strings.TrimSpace(req.Email + req.Phone)
	}
	if id == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	var u models.User
	q := config.DB.Where("phone = ?", id)
	if strings.Contains(id, "@") {
		q = config.DB.Where("email = ?", strings.ToLower(id))
	}
	if err := q.First(&u).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.IsActive {
		writeError(w, http.StatusForbidden, "account is deactivated")
		return
	}
	token, err := customerToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: token, User: toUserPayload(u)})
}

// generateOTP returns a uniformly random numeric code.
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}

type otpSendReq struct {
	Phone string `json:"phone"`
}

// findUserByPhone is a var so tests can run the OTP handlers without a database.
var findUserByPhone = func(phone string) (models.User, error) {
	var u models.User
	err := config.DB.Where("phone = ?", phone).First(&u).Error
	return u, err
}

// otpAccount loads the account an OTP login is for, writing 404 or 403 when
// there is none or it has been deactivated.
func otpAccount(w http.ResponseWriter, phone string) (models.User, bool) {
	u, err := findUserByPhone(phone)
	if err != nil {
		writeError(w, http.StatusNotFound, "no account for this phone number")
		return u, false
	}
	if !u.IsActive {
		writeError(w, http.StatusForbidden, "account is deactivated")
		return u, false
	}
	return u, true
}

// SendOTP issues a login code for a registered, active phone number and
// queues it for SMS delivery.
func SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpSendReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if err := validation.Validate(phone, validation.Required, validation.Match(phoneRE)); err != nil {
		writeValidation(w, validation.Errors{"phone": err})
		return
	}
	if _, ok := otpAccount(w, phone); !ok {
		return
	}

	var last models.OTPCode
	err := config.DB.Where("phone = ?", phone).Order("created_at DESC").First(&last).Error
	if err == nil && time.Since(last.CreatedAt) < otpResendAfter {
		writeError(w, http.StatusTooManyRequests, "please wait before requesting another code")
		return
	}

	code, err := generateOTP()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not generate code")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not generate code")
		return
	}
	otp := models.OTPCode{Phone: phone, CodeHash: string(hash), ExpiresAt: time.Now().Add(otpTTL)}
	if err := config.DB.Create(&otp).Error; err != nil {
		config.Log.Error("store otp", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store code")
		return
	}

	err = Notifier.Notify(r.Context(), events.Notification{
		Channel:   "sms",
		To:        phone,
		Template:  events.TemplateOTP,
		Data:      map[string]string{"code": code, "validMinutes": fmt.Sprint(int(otpTTL.Minutes()))},
		CreatedAt: time.Now(),
	})
	if err != nil {
		config.Log.Error("queue otp", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not send code")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"sent": true, "expiresIn": int(otpTTL.Seconds())})
}

type otpVerifyReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP checks the latest code for the phone and logs the user in.
// Deactivated accounts are refused before the code is looked at.
func VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	phone, code := strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code)
	if phone == "" || len(code) != otpLength {
		writeError(w, http.StatusBadRequest, "phone and a 6-digit code are required")
		return
	}
	u, ok := otpAccount(w, phone)
	if !ok {
		return
	}

	var otp models.OTPCode
	if err := config.DB.Where("phone = ? AND consumed = ?", phone, false).
		Order("created_at DESC").First(&otp).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	if !otp.Usable(time.Now(), otpMaxAttempts) {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		config.DB.Model(&otp).Update("attempts", gorm.Expr("attempts + 1"))
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	config.DB.Model(&otp).Update("consumed", true)

	if !u.PhoneVerified {
		config.DB.Model(&u).Update("phone_verified", true)
		u.PhoneVerified = true
	}
	token, err := customerToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Token: token, User: toUserPayload(u)})
}

// AccountActive backs middleware.RequireActive: it reloads the customer or
// admin behind the token so deactivation takes effect before the token expires.
func AccountActive(ctx context.Context, c *middleware.Claims) (bool, error) {
	var model interface{} = &models.User{}
	if c.Kind == middleware.KindAdmin {
		model = &models.Admin{}
	}
	var active []bool
	err := config.DB.WithContext(ctx).Model(model).Where("id = ?", c.UserID).Limit(1).Pluck("is_active", &active).Error
	if err != nil {
		return false, err
	}
	return len(active) == 1 && active[0], nil
}

// Me returns the logged-in customer.
func Me(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := config.DB.First(&u, "id = ?", middleware.GetUserID(r)).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(u))
}

type adminLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginResp struct {
	Token string       `json:"token"`
	Admin models.Admin `json:"admin"`
}

// AdminLogin issues an admin token carrying the account's permissions.
func AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var a models.Admin
	if err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&a).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil || !a.IsActive {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := middleware.GenerateToken(middleware.Claims{
		UserID:      a.ID.String(),
		Name:        a.Name,
		Email:       a.Email,
		Kind:        middleware.KindAdmin,
		Role:        a.Role,
		Permissions: a.EffectivePermissions(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}
	now := time.Now()
	config.DB.Model(&a).Update("last_login_at", now)
	a.LastLoginAt = &now
	writeJSON(w, http.StatusOK, adminLoginResp{Token: token, Admin: a})
}
