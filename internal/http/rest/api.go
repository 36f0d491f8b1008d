package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/comment_service/config"
	deps "github.com/bwise1/comment_service/internal/debs"
	"github.com/bwise1/comment_service/util"
	"github.com/bwise1/comment_service/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	defaultIdleTimeout  = time.Minute
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp.body())
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

// New builds the API and its http.Server. The server exists before Serve is
// called so Shutdown never races with it.
func New(cfg *config.Config, dependencies *deps.Dependencies) *API {
	api := &API{Config: cfg, Deps: dependencies}
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api
}

func (api *API) Serve() error {
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(RequestTracing)
	mux.Use(RequestLogger(api.Deps.Logger))
	mux.Use(middleware.Recoverer)
	if api.Config.RequestTimeout > 0 {
		mux.Use(middleware.Timeout(api.Config.RequestTimeout))
	}
	if api.Config.MaxBodyBytes > 0 {
		mux.Use(middleware.RequestSize(api.Config.MaxBodyBytes))
	}
	mux.Use(cors.New(cors.Options{
		AllowedOrigins: api.Config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", values.HeaderRequestID, values.HeaderRequestSource},
		ExposedHeaders: []string{values.HeaderRequestID},
	}).Handler)

	mux.Method(http.MethodGet, "/health", Handler(api.Health))
	mux.Mount("/comments", api.CommentRoutes())

	return mux
}

func (api *API) Health(_ http.ResponseWriter, _ *http.Request) *ServerResponse {
	return &ServerResponse{
		Message:    "ok",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

// Shutdown stops the server and then releases dependencies. Dependencies are
// closed even when the server fails to drain; the first error is returned.
func (api *API) Shutdown(ctx context.Context) error {
	var err error
	if api.Server != nil {
		err = api.Server.Shutdown(ctx)
	}

	if closeErr := api.Deps.Close(ctx); closeErr != nil {
		api.Deps.Logger.Warn("closing dependencies", zap.Error(closeErr))
		if err == nil {
			err = closeErr
		}
	}
	return err
}
