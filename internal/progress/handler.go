package progress

import (
	"net/http"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/progress", handler.HandleProgression).Methods("GET", "OPTIONS").Name("progression")
}

func (handler *Handler) HandleProgression(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	progressions, err := handler.analyzer.Progression(r.Context(), userID)
	if err != nil {
		log.Errorf("get progression: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, progressions, http.StatusOK)
}
