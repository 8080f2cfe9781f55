package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/logibook/config"
	"p9e.in/logibook/handlers"
	"p9e.in/logibook/middleware"
	"p9e.in/logibook/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", handlers.Register).Methods("POST")
	auth.HandleFunc("/login", handlers.Login).Methods("POST")
	auth.HandleFunc("/otp/send", handlers.SendOTP).Methods("POST")
	auth.HandleFunc("/otp/verify", handlers.VerifyOTP).Methods("POST")
	auth.Handle("/me", customerOnly(handlers.Me)).Methods("GET")

	r.HandleFunc("/api/admin/login", handlers.AdminLogin).Methods("POST")

	lookup := r.PathPrefix("/api/lookup").Subrouter()
	lookup.HandleFunc("/pincode/{code}", handlers.LookupPincode).Methods("GET")
	lookup.HandleFunc("/route", handlers.LookupRoute).Methods("GET")
	lookup.HandleFunc("/countries", handlers.ListCountries).Methods("GET")

	if !config.Env.UseGCS {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.Env.UploadDir))),
		)
	}

	// =====================================================
	// Admin Routes (require admin permissions)
	// =====================================================
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.JWTMiddleware, activeOnly)
	registerAdminRoutes(admin)

	// =====================================================
	// Customer Routes (require a customer token)
	// =====================================================
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTMiddleware, activeOnly)
	registerCustomerRoutes(api)

	return r
}

var activeOnly = middleware.RequireActive(handlers.AccountActive)

func customerOnly(h http.HandlerFunc) http.Handler {
	return middleware.JWTMiddleware(activeOnly(middleware.RequireKind(middleware.KindCustomer)(h)))
}

// registerCustomerRoutes registers the booking, rate and wallet endpoints
func registerCustomerRoutes(api *mux.Router) {
	customer := middleware.RequireKind(middleware.KindCustomer)
	handle := func(path string, h http.HandlerFunc, method string) {
		api.Handle(path, customer(h)).Methods(method)
	}

	// Rates
	handle("/rates/domestic", handlers.DomesticRates, "POST")
	handle("/proxy/booking/rates", handlers.ProxyRates, "POST")
	handle("/proxy/booking/create", handlers.CreateExportBooking, "POST")

	// Bookings
	handle("/bookings/validate", handlers.ValidateBookingStep, "POST")
	handle("/bookings/domestic", handlers.CreateDomesticBooking, "POST")
	handle("/bookings/export", handlers.CreateExportBooking, "POST")
	handle("/bookings", handlers.ListMyBookings, "GET")
	handle("/bookings/{id}", handlers.GetBooking, "GET")
	handle("/bookings/{id}/receipt", handlers.BookingReceipt, "GET")

	// Uploads
	handle("/uploads", handlers.UploadFileHandler, "POST")

	// MSME
	handle("/msme", handlers.SubmitMSME, "POST")
	handle("/msme", handlers.GetMyMSME, "GET")

	// Wallet
	handle("/wallet/balance", handlers.WalletBalance, "GET")
	handle("/wallet/transactions", handlers.WalletTransactions, "GET")
	handle("/wallet/bookings", handlers.ListMyBookings, "GET")
}

// registerAdminRoutes registers admin-only routes
func registerAdminRoutes(admin *mux.Router) {
	// User management
	admin.Handle("/users", middleware.RequirePermission(models.PermUsersRead,
		handlers.ListUsers)).Methods("GET")
	admin.Handle("/users/{id}", middleware.RequirePermission(models.PermUsersRead,
		handlers.GetUser)).Methods("GET")
	admin.Handle("/users/{id}", middleware.RequirePermission(models.PermUsersUpdate,
		handlers.UpdateUser)).Methods("PUT")
	admin.Handle("/users/{id}/deactivate", middleware.RequirePermission(models.PermUsersUpdate,
		handlers.DeactivateUser)).Methods("POST")
	admin.Handle("/users/{id}/wallet/credit", middleware.RequirePermission(models.PermWalletCredit,
		handlers.CreditWallet)).Methods("POST")

	// MSME registrations
	admin.Handle("/msme", middleware.RequirePermission(models.PermMSMERead,
		handlers.ListMSME)).Methods("GET")
	admin.Handle("/msme/{id}/approve", middleware.RequirePermission(models.PermMSMEApprove,
		handlers.ApproveMSME)).Methods("POST")
	admin.Handle("/msme/{id}/reject", middleware.RequirePermission(models.PermMSMEApprove,
		handlers.RejectMSME)).Methods("POST")

	// Fuel surcharges
	admin.Handle("/fuel-surcharges", middleware.RequirePermission(models.PermFuelSurchargeRead,
		handlers.ListFuelSurcharges)).Methods("GET")
	admin.Handle("/fuel-surcharges", middleware.RequirePermission(models.PermFuelSurchargeWrite,
		handlers.CreateFuelSurcharge)).Methods("POST")
	admin.Handle("/fuel-surcharges/{id}", middleware.RequirePermission(models.PermFuelSurchargeWrite,
		handlers.UpdateFuelSurcharge)).Methods("PUT")
	admin.Handle("/fuel-surcharges/{id}", middleware.RequirePermission(models.PermFuelSurchargeWrite,
		handlers.DeleteFuelSurcharge)).Methods("DELETE")

	// Bookings
	admin.Handle("/bookings", middleware.RequirePermission(models.PermBookingsRead,
		handlers.AdminListBookings)).Methods("GET")
	admin.Handle("/bookings/stats", middleware.RequirePermission(models.PermBookingsRead,
		handlers.AdminBookingStats)).Methods("GET")
	admin.Handle("/bookings/export", middleware.RequirePermission(models.PermBookingsExport,
		handlers.ExportBookings)).Methods("GET")
	admin.Handle("/bookings/{id}", middleware.RequirePermission(models.PermBookingsRead,
		handlers.AdminGetBooking)).Methods("GET")
	admin.Handle("/bookings/{id}/status", middleware.RequirePermission(models.PermBookingsUpdate,
		handlers.UpdateBookingStatus)).Methods("PATCH")

	// Admin accounts
	admin.Handle("/admins", middleware.RequirePermission(models.PermAdminsManage,
		handlers.ListAdmins)).Methods("GET")
	admin.Handle("/admins", middleware.RequireRole([]string{models.AdminRoleSuper},
		middleware.RequirePermission(models.PermAdminsManage, handlers.CreateAdmin))).Methods("POST")
}
