package matching

import (
	"github.com/gorilla/mux"

	"github.com/sparkdhq/sparkd-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, hub *Hub, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Recommendations
	api.HandleFunc("/candidates", handler.GetCandidates).Methods("GET")

	// Swipes
	api.HandleFunc("/swipes", handler.Swipe).Methods("POST")

	// Matches
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")

	// Match events
	api.HandleFunc("/ws", hub.ServeWS).Methods("GET")
}
