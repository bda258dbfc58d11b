package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Pinger is satisfied by store.Repo.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New returns the HTTP handler for operational endpoints.
func New(db Pinger) http.Handler {
	r := httprouter.New()
	r.GET("/healthz", healthz(db))
	return r
}

func healthz(db Pinger) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
