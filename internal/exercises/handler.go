package exercises

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const minNameLength = 2

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, userID, id int) (*Exercise, error)
	List(ctx context.Context, userID int) ([]Exercise, error)
	NameExists(ctx context.Context, userID int, name string, excludeID int) (bool, error)
	Update(ctx context.Context, exercise *Exercise) error
	Delete(ctx context.Context, userID, id int) error
}

type Handler struct {
	repo exercisesRepo
}

func NewHandler(repo exercisesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	exercisesRouter := router.PathPrefix("/exercises").Subrouter()
	exercisesRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	exercisesRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-exercise")
	exercisesRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")
	exercisesRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	exercisesRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-exercise")
}

type exerciseRequest struct {
	Name string `json:"name"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add exercise, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLength {
		pkg.WriteErrorResponse(w, "exercise name too short", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.NameExists(r.Context(), userID, name, 0)
	if err != nil {
		log.Errorf("add exercise, check name: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if exists {
		pkg.WriteErrorResponse(w, "exercise name already taken", http.StatusConflict)
		return
	}

	added, err := handler.repo.Add(r.Context(), Exercise{
		UserID: userID,
		Name:   name,
	})
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			pkg.WriteErrorResponse(w, "exercise name already taken", http.StatusConflict)
			return
		}
		log.Errorf("add exercise: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, added, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	exercises, err := handler.repo.List(r.Context(), userID)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, exercises, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r)
	if !ok {
		return
	}

	exercise, err := handler.repo.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			pkg.WriteErrorResponse(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, exercise, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLength {
		pkg.WriteErrorResponse(w, "exercise name too short", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.NameExists(r.Context(), userID, name, id)
	if err != nil {
		log.Errorf("update exercise, check name: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if exists {
		pkg.WriteErrorResponse(w, "exercise name already taken", http.StatusConflict)
		return
	}

	exercise := &Exercise{
		ID:     id,
		UserID: userID,
		Name:   name,
	}
	if err := handler.repo.Update(r.Context(), exercise); err != nil {
		switch {
		case errors.Is(err, ErrExerciseNotFound):
			pkg.WriteErrorResponse(w, "exercise not found", http.StatusNotFound)
		case errors.Is(err, ErrNameTaken):
			pkg.WriteErrorResponse(w, "exercise name already taken", http.StatusConflict)
		default:
			log.Errorf("update exercise %d: %s", id, err)
			pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteDataResponse(w, exercise, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			pkg.WriteErrorResponse(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete exercise %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		pkg.WriteErrorResponse(w, "invalid exercise id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
