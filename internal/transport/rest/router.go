package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photodoctor/internal/service"
	"photodoctor/internal/transport/rest/handler"
	"photodoctor/internal/transport/rest/middleware"
	"photodoctor/internal/transport/ws"
)

// Container holds all dependencies for the router.
// PhotoService, IncidentService and WSHub are optional.
type Container struct {
	DiagnosisService *service.DiagnosisService
	PhotoService     *service.PhotoService
	IncidentService  *service.IncidentService
	WSHub            *ws.Hub
	Logger           *zap.Logger
	CORSOrigins      []string
	MaxUploadBytes   int64
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// CORS first so preflights never reach a handler
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(middleware.RequestID(logger))

	v1 := r.PathPrefix("/v1").Subrouter()

	diagnosisHandler := handler.NewDiagnosisHandler(c.DiagnosisService, c.MaxUploadBytes, logger)
	v1.HandleFunc("/diagnose", diagnosisHandler.Diagnose).Methods("POST", "OPTIONS")

	if c.PhotoService != nil {
		photoHandler := handler.NewPhotoHandler(c.PhotoService, c.MaxUploadBytes, logger)
		v1.HandleFunc("/photos", photoHandler.Upload).Methods("POST", "OPTIONS")
		v1.HandleFunc("/photos/{id}", photoHandler.Get).Methods("GET", "OPTIONS")
	}

	if c.IncidentService != nil {
		incidentHandler := handler.NewIncidentHandler(c.IncidentService, logger)
		v1.HandleFunc("/incidents", incidentHandler.List).Methods("GET", "OPTIONS")
		v1.HandleFunc("/incidents/{id}", incidentHandler.Get).Methods("GET", "OPTIONS")
	}

	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.CORSOrigins, logger)
		v1.HandleFunc("/ws/incidents", wsHandler.IncidentsWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", middleware.RequestIDHeader}, ", "))
			w.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
