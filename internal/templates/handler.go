package templates

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=templates_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/exercises"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const minNameLength = 2

type templatesRepo interface {
	Add(ctx context.Context, template Template) (*Template, error)
	Get(ctx context.Context, userID, id int) (*Template, error)
	List(ctx context.Context, userID int) ([]Template, error)
	NameExists(ctx context.Context, userID int, name string, excludeID int) (bool, error)
	Update(ctx context.Context, template *Template) error
	Delete(ctx context.Context, userID, id int) error
	AddExercise(ctx context.Context, templateID, exerciseID, position int) error
	RemoveExercise(ctx context.Context, templateID, exerciseID int) error
	ListExercises(ctx context.Context, templateID int) ([]TemplateExercise, error)
}

type exercisesGetter interface {
	Get(ctx context.Context, userID, id int) (*exercises.Exercise, error)
}

type Handler struct {
	repo          templatesRepo
	exercisesRepo exercisesGetter
}

func NewHandler(repo templatesRepo, exercisesRepo exercisesGetter) *Handler {
	return &Handler{
		repo:          repo,
		exercisesRepo: exercisesRepo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	templatesRouter := router.PathPrefix("/templates").Subrouter()
	templatesRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	templatesRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-template")
	templatesRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-template")
	templatesRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-template")
	templatesRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-template")
	templatesRouter.HandleFunc("/{id}/exercises", handler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-template-exercises")
	templatesRouter.HandleFunc("/{id}/exercises", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("add-template-exercise")
	templatesRouter.HandleFunc("/{id}/exercises/{exerciseId}", handler.HandleRemoveExercise).Methods("DELETE", "OPTIONS").Name("remove-template-exercise")
}

type templateRequest struct {
	Name string `json:"name"`
}

type addExerciseRequest struct {
	ExerciseID int `json:"exerciseId"`
	Position   int `json:"position"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add template, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLength {
		pkg.WriteErrorResponse(w, "template name too short", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.NameExists(r.Context(), userID, name, 0)
	if err != nil {
		log.Errorf("add template, check name: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if exists {
		pkg.WriteErrorResponse(w, "template name already taken", http.StatusConflict)
		return
	}

	added, err := handler.repo.Add(r.Context(), Template{
		UserID: userID,
		Name:   name,
	})
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			pkg.WriteErrorResponse(w, "template name already taken", http.StatusConflict)
			return
		}
		log.Errorf("add template: %s", err)
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

	templates, err := handler.repo.List(r.Context(), userID)
	if err != nil {
		log.Errorf("list templates: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, templates, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	template, err := handler.repo.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("get template %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	templateExercises, err := handler.repo.ListExercises(r.Context(), id)
	if err != nil {
		log.Errorf("get template %d, list exercises: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, TemplateDetails{
		Template:  *template,
		Exercises: templateExercises,
	}, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update template, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLength {
		pkg.WriteErrorResponse(w, "template name too short", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.NameExists(r.Context(), userID, name, id)
	if err != nil {
		log.Errorf("update template, check name: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if exists {
		pkg.WriteErrorResponse(w, "template name already taken", http.StatusConflict)
		return
	}

	template := &Template{
		ID:     id,
		UserID: userID,
		Name:   name,
	}
	if err := handler.repo.Update(r.Context(), template); err != nil {
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
		case errors.Is(err, ErrNameTaken):
			pkg.WriteErrorResponse(w, "template name already taken", http.StatusConflict)
		default:
			log.Errorf("update template %d: %s", id, err)
			pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteDataResponse(w, template, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete template %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

// HandleListExercises returns the exercises linked to an owned template,
// ordered by position. A template owned by somebody else is reported as
// not found, same as a missing one.
func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := handler.repo.Get(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("list template exercises, get template %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	templateExercises, err := handler.repo.ListExercises(r.Context(), id)
	if err != nil {
		log.Errorf("list template %d exercises: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, templateExercises, http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add template exercise, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Position < 1 {
		pkg.WriteErrorResponse(w, "position must be a positive number", http.StatusBadRequest)
		return
	}

	// both the template and the exercise have to belong to the caller
	if _, err := handler.repo.Get(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("add template exercise, get template %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if _, err := handler.exercisesRepo.Get(r.Context(), userID, req.ExerciseID); err != nil {
		if errors.Is(err, exercises.ErrExerciseNotFound) {
			pkg.WriteErrorResponse(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("add template exercise, get exercise %d: %s", req.ExerciseID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.AddExercise(r.Context(), id, req.ExerciseID, req.Position); err != nil {
		if errors.Is(err, ErrExerciseLinked) {
			pkg.WriteErrorResponse(w, "exercise already in template", http.StatusConflict)
			return
		}
		log.Errorf("add exercise %d to template %d: %s", req.ExerciseID, id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, TemplateExercise{
		ExerciseID: req.ExerciseID,
		Position:   req.Position,
	}, http.StatusCreated)
}

func (handler *Handler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	exerciseID, ok := idParam(w, r, "exerciseId")
	if !ok {
		return
	}

	if _, err := handler.repo.Get(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("remove template exercise, get template %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := handler.repo.RemoveExercise(r.Context(), id, exerciseID); err != nil {
		if errors.Is(err, ErrExerciseNotInTemplate) {
			pkg.WriteErrorResponse(w, "exercise not in template", http.StatusNotFound)
			return
		}
		log.Errorf("remove exercise %d from template %d: %s", exerciseID, id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "removed")
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars[name])
	if err != nil {
		pkg.WriteErrorResponse(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
