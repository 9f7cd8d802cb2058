package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/database"
	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/schema"
	"github.com/bitterlily/codeboard/server/containers"
)

const tokenDuration = 12 * time.Hour

type contextKey string

const participantKey contextKey = "participant"

type Server struct {
	Mux       *mux.Router
	DB        *gorm.DB
	Token     Token
	Config    game.Config
	BaseURL   string
	Broadcast *Broadcaster
	Upgrader  websocket.Upgrader
	Log       *logrus.Logger
}

func New(db *gorm.DB, cfg game.Config, baseURL, tokenSecret string, log *logrus.Logger) *Server {
	return &Server{
		DB:        db,
		Mux:       mux.NewRouter(),
		Token:     NewToken(tokenSecret),
		Config:    cfg,
		BaseURL:   baseURL,
		Broadcast: NewBroadcaster(log),
		Log:       log,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			//TODO: Also fix this origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Connect(address string) error {
	authRouter := s.Mux.NewRoute().Subrouter()
	authRouter.Use(s.authHandler)
	authRouter.HandleFunc("/api/session", s.handleSessionStart).Methods("POST")
	authRouter.HandleFunc("/api/session/{id}/next", s.handleSessionNext).Methods("POST")
	authRouter.HandleFunc("/api/game", s.handleGameCreate).Methods("POST")
	authRouter.HandleFunc("/api/game/{code}", s.handleGameShow).Methods("GET")
	authRouter.HandleFunc("/api/game/{code}/reveal", s.handleReveal).Methods("POST")
	authRouter.HandleFunc("/api/game/{code}/select", s.handleSelect).Methods("POST")
	authRouter.HandleFunc("/api/game/{code}/changes", s.handleChanges).Methods("GET")
	authRouter.HandleFunc("/api/game/{code}/ws", s.handleSubscribe)

	s.Mux.HandleFunc("/api/register", s.handleUserRegister).Methods("POST")
	s.Mux.HandleFunc("/api/login", s.handleUserLogin).Methods("POST")
	s.Mux.HandleFunc("/api/guest", s.handleGuest).Methods("POST")
	s.Mux.HandleFunc("/api/tags", s.handleTags).Methods("GET")
	s.Mux.HandleFunc("/api/game/{code}/qr", s.handleShareCode).Methods("GET")
	s.Mux.Use(mux.CORSMethodMiddleware(s.Mux))
	s.Log.WithField("address", address).Info("starting server")

	//TODO: fix the allowed origins
	allowedOrigins := handlers.AllowedOrigins([]string{"*"})
	allowedMethods := handlers.AllowedMethods([]string{"POST", "OPTIONS", "GET"})
	allowedHeaders := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})

	if err := http.ListenAndServe(
		address,
		handlers.LoggingHandler(s.Log.Writer(), handlers.CORS(
			allowedOrigins,
			allowedMethods,
			allowedHeaders)(s.Mux))); err != nil {
		return fmt.Errorf("error connecting to server %s: %w", address, err)
	}
	return nil
}

func (s *Server) authHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.Token.CheckTokenRequest(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), participantKey, payload.Participant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func participant(r *http.Request) (string, bool) {
	p, ok := r.Context().Value(participantKey).(string)
	return p, ok && p != ""
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.WithError(err).Error("could not encode response")
	}
}

// writeError maps typed domain errors onto status codes. Anything it
// does not recognize becomes a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notEnough *game.NotEnoughPhrasesError
	var derr *database.DatabaseError
	switch {
	case errors.As(err, &notEnough):
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     "not enough phrases",
			"needed":    notEnough.Needed,
			"available": notEnough.Available,
		})
	case errors.Is(err, game.ErrAlreadyRevealed):
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": "card is already revealed"})
	case errors.Is(err, game.ErrCardRevealed):
		s.writeJSON(w, http.StatusConflict, map[string]string{"error": "cannot select a revealed card"})
	case errors.Is(err, game.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &derr):
		s.Log.WithError(err).Error("database error")
		w.WriteHeader(http.StatusInternalServerError)
	default:
		s.Log.WithError(err).Error("internal error")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// publish computes the delta covering a just-committed mutation and fans
// it out. Runs after the transaction so the delta always sees committed
// state.
func (s *Server) publish(code string, since int64) {
	delta, err := database.ChangesSince(s.DB, code, since)
	if err != nil {
		s.Log.WithError(err).WithField("game", code).Error("could not compute delta")
		return
	}
	if delta == nil {
		return
	}
	s.Broadcast.Publish(code, delta)
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	user, err := containers.ParseLoginUser(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad user json"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	schemaUser := &schema.User{
		Email:       user.Email,
		Password:    hashedPassword,
		Username:    user.Username,
		Participant: uuid.NewString(),
	}

	id, derr := database.AddUser(s.DB, schemaUser)
	if derr != nil {
		if derr.ErrorType == database.ConflictError {
			s.writeJSON(w, http.StatusConflict, map[string]string{"error": derr.Error()})
			return
		}
		s.writeError(w, derr)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	user, err := containers.ParseLoginUser(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad user json"})
		return
	}
	dbUser, derr := database.GetUserByEmail(s.DB, user.Email)
	if derr != nil {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "wrong email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(dbUser.Password, []byte(user.Password)); err != nil {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "wrong email or password"})
		return
	}

	token, err := s.Token.CreateToken(dbUser.Participant, tokenDuration)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionToken": token,
		"user":         dbUser,
	})
}

// handleGuest issues a participant token without an account. The
// participant id only keys selections; it grants nothing on its own.
func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	token, err := s.Token.CreateToken(uuid.NewString(), tokenDuration)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"sessionToken": token})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, derr := database.AllTags(s.DB)
	if derr != nil {
		s.writeError(w, derr)
		return
	}
	s.writeJSON(w, http.StatusOK, tags)
}
