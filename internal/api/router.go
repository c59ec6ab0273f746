package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jaam8/voting_booth/internal/metrics"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins []string
}

func NewRouter(tasks *TaskHandler, auth *Authenticator, m *metrics.Metrics, cfg RouterConfig, l *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(WithLogging(l), auth.Middleware)
	api.HandleFunc("/tasks", tasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tokens/redeem", tasks.RedeemToken).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
