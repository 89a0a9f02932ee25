package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

const minPasswordLength = 8

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
}

type sessionStore interface {
	Create(ctx context.Context, userID int) (string, error)
	Destroy(ctx context.Context, token string) error
}

type sessionCache interface {
	Forget(token string)
}

type Handler struct {
	users          usersRepo
	sessions       sessionStore
	sessionCache   sessionCache
	metricsManager *metrics.Manager
}

func NewHandler(
	users usersRepo,
	sessions sessionStore,
	cache sessionCache,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		users:          users,
		sessions:       sessions,
		sessionCache:   cache,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimit mux.MiddlewareFunc,
) {
	userSubrouter := mainRouter.PathPrefix("/user").Subrouter()
	userSubrouter.
		HandleFunc("/register", handler.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	userSubrouter.
		HandleFunc("/login", handler.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	userSubrouter.
		HandleFunc("/logout", handler.HandleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	userSubrouter.
		HandleFunc("/profile", handler.HandleProfile).
		Methods("GET", "OPTIONS").Name("profile")

	// rate limit register/login to prevent abuse
	userSubrouter.Use(rateLimit)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.register")
	defer span.End()

	var regReq credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&regReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if regReq.Email == "" || regReq.Password == "" {
		pkg.WriteErrorResponse(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if !pkg.IsValidEmail(regReq.Email) {
		pkg.WriteErrorResponse(w, "email is invalid", http.StatusBadRequest)
		return
	}
	if len(regReq.Password) < minPasswordLength {
		pkg.WriteErrorResponse(w, "password must have at least 8 characters", http.StatusBadRequest)
		return
	}

	if _, err := handler.users.GetByEmail(ctx, regReq.Email); err == nil {
		pkg.WriteErrorResponse(w, "user already exists with this email", http.StatusConflict)
		return
	} else if !errors.Is(err, ErrUserNotFound) {
		log.Errorf("register, check existing user: %s", err)
		pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	passwordHash, err := pkg.HashPassword(regReq.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	addedUser, err := handler.users.Add(ctx, User{
		Email:        regReq.Email,
		Name:         regReq.Name,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteErrorResponse(w, "user already exists with this email", http.StatusConflict)
			return
		}
		log.Errorf("register, add user: %s", err)
		pkg.WriteErrorResponse(w, "failed to register", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterRegisteredUsers.Inc()
	log.Debugf("new user registered: %d", addedUser.ID)

	pkg.WriteDataResponse(w, addedUser.Profile(), http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	var loginReq credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		pkg.WriteErrorResponse(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := handler.users.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// same response as for a wrong password, do not leak
			// whether the email is registered
			logFailedLogin(r, loginReq.Email)
			pkg.WriteErrorResponse(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login, get user: %s", err)
		pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		logFailedLogin(r, loginReq.Email)
		pkg.WriteErrorResponse(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// rotate the session id to prevent fixation: any token the request
	// came with is destroyed before a fresh one is issued
	if oldToken := TokenFromRequest(r); oldToken != "" {
		if err := handler.sessions.Destroy(ctx, oldToken); err != nil {
			log.Errorf("login, destroy previous session: %s", err)
		}
		handler.sessionCache.Forget(oldToken)
	}

	token, err := handler.sessions.Create(ctx, user.ID)
	if err != nil {
		log.Errorf("login, create session: %s", err)
		pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogins.Inc()
	log.Tracef("new login success for user %d", user.ID)

	SetSessionCookie(w, token)
	pkg.WriteDataResponse(w, map[string]string{"token": token}, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	// logout is idempotent, no session is still a successful logout
	if token := TokenFromRequest(r); token != "" {
		if err := handler.sessions.Destroy(ctx, token); err != nil {
			log.Errorf("logout, destroy session: %s", err)
			pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
			return
		}
		handler.sessionCache.Forget(token)
	}

	ClearSessionCookie(w)
	pkg.WriteDataResponse(w, "logged out", http.StatusOK)
}

func (handler *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.profile")
	defer span.End()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	user, err := handler.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteErrorResponse(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		log.Errorf("get profile for user %d: %s", userID, err)
		pkg.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteDataResponse(w, user.Profile(), http.StatusOK)
}

func logFailedLogin(r *http.Request, email string) {
	reqIp, _ := pkg.ReadUserIP(r)
	log.Tracef("failed login attempt for [%s] from %s", email, reqIp)
}
