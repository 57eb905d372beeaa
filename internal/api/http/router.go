package http

import (
	"github.com/gorilla/mux"
)

// RegisterRegistrationRoutes wires the registration endpoints. The public
// competitor list stays outside the auth middleware; everything else needs a
// bearer token.
func RegisterRegistrationRoutes(router *mux.Router, handler *RegistrationHandler, auth *AuthMiddleware) {
	router.HandleFunc("/api/v1/competitions/{competition_id}/registrations", handler.List).Methods("GET")

	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth.Handler)
	protected.HandleFunc("/registrations", handler.Create).Methods("POST")
	protected.HandleFunc("/registrations", handler.Update).Methods("PATCH")
	protected.HandleFunc("/registrations/bulk", handler.BulkUpdate).Methods("PATCH")
	protected.HandleFunc("/registrations/{competition_id}/{user_id}", handler.Show).Methods("GET")
	protected.HandleFunc("/registrations/{competition_id}/payment_ticket", handler.PaymentTicket).Methods("POST")
	protected.HandleFunc("/competitions/{competition_id}/registrations/admin", handler.ListAdmin).Methods("GET")
	protected.HandleFunc("/competitions/{competition_id}/registrations/promote", handler.Promote).Methods("POST")
}
