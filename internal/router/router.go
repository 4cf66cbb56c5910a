package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/claiminsight/claiminsight-api/internal/config"
	"github.com/claiminsight/claiminsight-api/internal/handlers"
	"github.com/claiminsight/claiminsight-api/internal/middleware"
	"github.com/claiminsight/claiminsight-api/internal/services"
	"github.com/claiminsight/claiminsight-api/internal/tempfile"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

func NewRouter(claimService services.ClaimService, files *tempfile.Store, cfg *config.Config, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Recovery(logger))

	claimHandler := handlers.NewClaimHandler(claimService, files, cfg.MaxUploadSize, logger)

	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Upload pipeline
	api.HandleFunc("/upload", claimHandler.UploadClaim).Methods(http.MethodPost)

	// Reports
	api.HandleFunc("/download-pdf", claimHandler.GeneratePDF).Methods(http.MethodPost)
	api.HandleFunc("/download-pdf", claimHandler.DownloadSavedFile).Methods(http.MethodGet)

	// History
	api.HandleFunc("/history", claimHandler.ListHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", claimHandler.DeleteHistoryEntry).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}/image", claimHandler.HistoryImage).Methods(http.MethodGet)

	return r
}
