package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/logibook/config"
	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
)

var ErrInsufficientBalance = errors.New("wallet: insufficient balance")

// debitWallet takes amount from the user's balance inside tx and records the
// movement. It fails with ErrInsufficientBalance instead of going negative.
func debitWallet(tx *gorm.DB, userID uuid.UUID, amount float64, bookingID *uuid.UUID, ref string) (models.WalletTransaction, error) {
	amt := decimal.NewFromFloat(amount).Round(2)
	res := tx.Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amt).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amt))
	if res.Error != nil {
		return models.WalletTransaction{}, fmt.Errorf("debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.WalletTransaction{}, ErrInsufficientBalance
	}
	return recordWallet(tx, userID, models.WalletDebit, amt, bookingID, ref, "", nil)
}

func creditWallet(tx *gorm.DB, userID uuid.UUID, amount float64, ref, note string, by *uuid.UUID) (models.WalletTransaction, error) {
	amt := decimal.NewFromFloat(amount).Round(2)
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amt))
	if res.Error != nil {
		return models.WalletTransaction{}, fmt.Errorf("credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.WalletTransaction{}, gorm.ErrRecordNotFound
	}
	return recordWallet(tx, userID, models.WalletCredit, amt, nil, ref, note, by)
}

func recordWallet(tx *gorm.DB, userID uuid.UUID, kind string, amt decimal.Decimal, bookingID *uuid.UUID, ref, note string, by *uuid.UUID) (models.WalletTransaction, error) {
	var u models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("wallet_balance").First(&u, "id = ?", userID).Error; err != nil {
		return models.WalletTransaction{}, fmt.Errorf("read balance: %w", err)
	}
	wt := models.WalletTransaction{
		UserID:       userID,
		Type:         kind,
		Amount:       amt.InexactFloat64(),
		BalanceAfter: u.WalletBalance,
		BookingID:    bookingID,
		Reference:    ref,
		Note:         note,
		CreatedBy:    by,
	}
	if err := tx.Create(&wt).Error; err != nil {
		return models.WalletTransaction{}, fmt.Errorf("record wallet transaction: %w", err)
	}
	return wt, nil
}

func WalletBalance(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := config.DB.Select("id", "wallet_balance").First(&u, "id = ?", middleware.GetUserID(r)).Error; err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"balance": u.WalletBalance, "currency": "INR"})
}

func WalletTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)
	q := config.DB.Model(&models.WalletTransaction{}).Where("user_id = ?", middleware.GetUserID(r))
	if t := strings.ToUpper(r.URL.Query().Get("type")); t != "" {
		q = q.Where("type = ?", t)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count transactions")
		return
	}
	var txs []models.WalletTransaction
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txs).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"pagination":   pageMeta{Page: page, Limit: limit, Total: total},
	})
}

type walletCreditReq struct {
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Note      string  `json:"note"`
}

func (r walletCreditReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1000000.0)),
		validation.Field(&r.Reference, validation.Length(0, 64)),
		validation.Field(&r.Note, validation.Length(0, 255)),
	)
}

// CreditWallet lets an admin top up a customer's wallet.
func CreditWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req walletCreditReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	var by *uuid.UUID
	if id, err := uuid.Parse(middleware.GetUserID(r)); err == nil {
		by = &id
	}

	var wt models.WalletTransaction
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		wt, err = creditWallet(tx, userID, req.Amount, strings.TrimSpace(req.Reference), strings.TrimSpace(req.Note), by)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		config.Log.Error("credit wallet", zap.String("user", userID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to credit wallet")
		return
	}
	config.Log.Info("wallet credited", zap.String("user", userID.String()), zap.Float64("amount", wt.Amount))
	writeJSON(w, http.StatusCreated, wt)
}
