package workouts

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/exercises"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/templates"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSessionsLimit = 50
	maxSessionsLimit     = 200
)

type workoutsRepo interface {
	AddSession(ctx context.Context, session Session) (*Session, error)
	GetSession(ctx context.Context, id int) (*Session, error)
	ListSessions(ctx context.Context, userID, limit int) ([]Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, userID, id int) error
	AddSet(ctx context.Context, set Set) (*Set, error)
	GetSet(ctx context.Context, id int) (*Set, error)
	ListSets(ctx context.Context, sessionID int) ([]SetDetails, error)
	UpdateSet(ctx context.Context, set *Set) error
	DeleteSet(ctx context.Context, id int) error
}

type templatesRepo interface {
	Get(ctx context.Context, userID, id int) (*templates.Template, error)
	ListExercises(ctx context.Context, templateID int) ([]templates.TemplateExercise, error)
}

type exercisesGetter interface {
	Get(ctx context.Context, userID, id int) (*exercises.Exercise, error)
}

type Handler struct {
	repo          workoutsRepo
	templatesRepo templatesRepo
	exercisesRepo exercisesGetter
	metrics       *metrics.Manager
}

func NewHandler(
	repo workoutsRepo,
	templatesRepo templatesRepo,
	exercisesRepo exercisesGetter,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:          repo,
		templatesRepo: templatesRepo,
		exercisesRepo: exercisesRepo,
		metrics:       metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	workoutsRouter := router.PathPrefix("/workouts").Subrouter()
	workoutsRouter.HandleFunc("", handler.HandleListSessions).Methods("GET", "OPTIONS").Name("list-workouts")
	workoutsRouter.HandleFunc("", handler.HandleAddSession).Methods("POST", "OPTIONS").Name("add-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleGetSession).Methods("GET", "OPTIONS").Name("get-workout")
	workoutsRouter.HandleFunc("/{id}/full", handler.HandleGetSessionFull).Methods("GET", "OPTIONS").Name("get-workout-full")
	workoutsRouter.HandleFunc("/{id}", handler.HandleUpdateSession).Methods("PUT", "OPTIONS").Name("update-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleDeleteSession).Methods("DELETE", "OPTIONS").Name("delete-workout")
	workoutsRouter.HandleFunc("/{id}/sets", handler.HandleListSets).Methods("GET", "OPTIONS").Name("list-workout-sets")
	workoutsRouter.HandleFunc("/{id}/sets", handler.HandleAddSet).Methods("POST", "OPTIONS").Name("add-workout-set")

	setsRouter := router.PathPrefix("/sets").Subrouter()
	setsRouter.HandleFunc("/{id}", handler.HandleUpdateSet).Methods("PUT", "OPTIONS").Name("update-set")
	setsRouter.HandleFunc("/{id}", handler.HandleDeleteSet).Methods("DELETE", "OPTIONS").Name("delete-set")
}

type addSessionRequest struct {
	TemplateID  *int    `json:"templateId"`
	PerformedAt *string `json:"performedAt"`
}

type updateSessionRequest struct {
	// a raw message distinguishes an absent templateId from an explicit
	// null (detach from the template)
	TemplateID  *json.RawMessage `json:"templateId"`
	PerformedAt *string          `json:"performedAt"`
}

type setRequest struct {
	ExerciseID int     `json:"exerciseId"`
	SetNumber  int     `json:"setNumber"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

type updateSetRequest struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
}

func (handler *Handler) HandleAddSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req addSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add workout, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	performedAt := time.Now()
	if req.PerformedAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.PerformedAt)
		if err != nil {
			pkg.WriteErrorResponse(w, "invalid performedAt timestamp", http.StatusBadRequest)
			return
		}
		performedAt = parsed
	}

	if req.TemplateID != nil {
		if _, err := handler.templatesRepo.Get(r.Context(), userID, *req.TemplateID); err != nil {
			if errors.Is(err, templates.ErrTemplateNotFound) {
				pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
				return
			}
			log.Errorf("add workout, get template %d: %s", *req.TemplateID, err)
			pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	added, err := handler.repo.AddSession(r.Context(), Session{
		UserID:      userID,
		TemplateID:  req.TemplateID,
		PerformedAt: performedAt,
	})
	if err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			pkg.WriteErrorResponse(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("add workout: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, added, http.StatusCreated)
}

func (handler *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	limit := defaultSessionsLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			pkg.WriteErrorResponse(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxSessionsLimit {
		limit = maxSessionsLimit
	}

	sessions, err := handler.repo.ListSessions(r.Context(), userID, limit)
	if err != nil {
		log.Errorf("list workouts: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, sessions, http.StatusOK)
}

// ownedSession resolves a session and checks ownership; a missing session
// is not found, somebody else's session is forbidden.
func (handler *Handler) ownedSession(w http.ResponseWriter, r *http.Request, userID, id int) *Session {
	session, err := handler.repo.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return nil
		}
		log.Errorf("get workout %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if session.UserID != userID {
		pkg.WriteErrorResponse(w, "forbidden", http.StatusForbidden)
		return nil
	}
	return session
}

func (handler *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	session := handler.ownedSession(w, r, userID, id)
	if session == nil {
		return
	}

	pkg.WriteDataResponse(w, session, http.StatusOK)
}

func (handler *Handler) HandleGetSessionFull(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	session := handler.ownedSession(w, r, userID, id)
	if session == nil {
		return
	}

	sets, err := handler.repo.ListSets(r.Context(), id)
	if err != nil {
		log.Errorf("get workout %d, list sets: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, SessionDetails{
		Session: *session,
		Sets:    sets,
	}, http.StatusOK)
}

func (handler *Handler) HandleUpdateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.TemplateID == nil && req.PerformedAt == nil {
		pkg.WriteErrorResponse(w, "no valid fields to update", http.StatusBadRequest)
		return
	}

	session, err := handler.repo.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("update workout, get workout %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if session.UserID != userID {
		pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
		return
	}

	if req.TemplateID != nil {
		if string(*req.TemplateID) == "null" {
			session.TemplateID = nil
		} else {
			var templateID int
			if err := json.Unmarshal(*req.TemplateID, &templateID); err != nil || templateID < 1 {
				pkg.WriteErrorResponse(w, "invalid templateId", http.StatusBadRequest)
				return
			}
			if _, err := handler.templatesRepo.Get(r.Context(), userID, templateID); err != nil {
				if errors.Is(err, templates.ErrTemplateNotFound) {
					pkg.WriteErrorResponse(w, "invalid templateId", http.StatusBadRequest)
					return
				}
				log.Errorf("update workout, get template %d: %s", templateID, err)
				pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
				return
			}
			session.TemplateID = &templateID
		}
	}

	if req.PerformedAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.PerformedAt)
		if err != nil {
			pkg.WriteErrorResponse(w, "invalid performedAt timestamp", http.StatusBadRequest)
			return
		}
		session.PerformedAt = parsed
	}

	if err := handler.repo.UpdateSession(r.Context(), session); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("update workout %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, session, http.StatusOK)
}

func (handler *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := handler.repo.DeleteSession(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete workout %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	sessionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add set, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := handler.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("add set, get workout %d: %s", sessionID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if session.UserID != userID {
		pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
		return
	}

	if req.SetNumber < 1 {
		pkg.WriteErrorResponse(w, "setNumber must be a positive number", http.StatusBadRequest)
		return
	}
	if req.Reps < 1 {
		pkg.WriteErrorResponse(w, "reps must be a positive number", http.StatusBadRequest)
		return
	}
	if req.Weight < 0 {
		pkg.WriteErrorResponse(w, "weight must not be negative", http.StatusBadRequest)
		return
	}

	exercise, err := handler.exercisesRepo.Get(r.Context(), userID, req.ExerciseID)
	if err != nil {
		if errors.Is(err, exercises.ErrExerciseNotFound) {
			pkg.WriteErrorResponse(w, "invalid exerciseId", http.StatusBadRequest)
			return
		}
		log.Errorf("add set, get exercise %d: %s", req.ExerciseID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	// a session started from a template only accepts exercises that
	// template contains
	if session.TemplateID != nil {
		inTemplate, err := handler.exerciseInTemplate(r.Context(), *session.TemplateID, req.ExerciseID)
		if err != nil {
			log.Errorf("add set, check template %d exercises: %s", *session.TemplateID, err)
			pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !inTemplate {
			pkg.WriteErrorResponse(w, "exercise not in workout template", http.StatusBadRequest)
			return
		}
	}

	added, err := handler.repo.AddSet(r.Context(), Set{
		SessionID:  sessionID,
		ExerciseID: req.ExerciseID,
		SetNumber:  req.SetNumber,
		Reps:       req.Reps,
		Weight:     req.Weight,
	})
	if err != nil {
		log.Errorf("add set: %s", err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLoggedSets.Inc()

	pkg.WriteDataResponse(w, SetDetails{
		Set:          *added,
		ExerciseName: exercise.Name,
	}, http.StatusCreated)
}

func (handler *Handler) exerciseInTemplate(ctx context.Context, templateID, exerciseID int) (bool, error) {
	templateExercises, err := handler.templatesRepo.ListExercises(ctx, templateID)
	if err != nil {
		return false, err
	}
	for _, te := range templateExercises {
		if te.ExerciseID == exerciseID {
			return true, nil
		}
	}
	return false, nil
}

func (handler *Handler) HandleListSets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	sessionID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	// somebody else's session is hidden here, same as on adding sets
	session, err := handler.repo.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("list sets, get workout %d: %s", sessionID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if session.UserID != userID {
		pkg.WriteErrorResponse(w, "workout not found", http.StatusNotFound)
		return
	}

	sets, err := handler.repo.ListSets(r.Context(), sessionID)
	if err != nil {
		log.Errorf("list sets of workout %d: %s", sessionID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, sets, http.StatusOK)
}

// ownedSet resolves a set and then walks up to its session to check the
// owner. The set existing but belonging to somebody else's session is
// forbidden, not hidden.
func (handler *Handler) ownedSet(w http.ResponseWriter, r *http.Request, userID, id int) *Set {
	set, err := handler.repo.GetSet(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteErrorResponse(w, "set not found", http.StatusNotFound)
			return nil
		}
		log.Errorf("get set %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return nil
	}

	session, err := handler.repo.GetSession(r.Context(), set.SessionID)
	if err != nil {
		log.Errorf("get set %d, get workout %d: %s", id, set.SessionID, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if session.UserID != userID {
		pkg.WriteErrorResponse(w, "forbidden", http.StatusForbidden)
		return nil
	}

	return set
}

func (handler *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req updateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update set, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Reps == nil && req.Weight == nil {
		pkg.WriteErrorResponse(w, "no valid fields to update", http.StatusBadRequest)
		return
	}
	if req.Reps != nil && *req.Reps < 1 {
		pkg.WriteErrorResponse(w, "reps must be a positive number", http.StatusBadRequest)
		return
	}
	if req.Weight != nil && *req.Weight < 0 {
		pkg.WriteErrorResponse(w, "weight must not be negative", http.StatusBadRequest)
		return
	}

	set := handler.ownedSet(w, r, userID, id)
	if set == nil {
		return
	}

	if req.Reps != nil {
		set.Reps = *req.Reps
	}
	if req.Weight != nil {
		set.Weight = *req.Weight
	}

	if err := handler.repo.UpdateSet(r.Context(), set); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteErrorResponse(w, "set not found", http.StatusNotFound)
			return
		}
		log.Errorf("update set %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, set, http.StatusOK)
}

func (handler *Handler) HandleDeleteSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	set := handler.ownedSet(w, r, userID, id)
	if set == nil {
		return
	}

	if err := handler.repo.DeleteSet(r.Context(), set.ID); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			pkg.WriteErrorResponse(w, "set not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete set %d: %s", id, err)
		pkg.WriteErrorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
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
