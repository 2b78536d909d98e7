package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes are mounted on Router when it is wired.
// Definitions producing Routes join group RoutesGroup.
type Routes interface {
	Mount(r chi.Router)
}

// RoutesFunc adapts a function to Routes.
type RoutesFunc func(r chi.Router)

func (f RoutesFunc) Mount(r chi.Router) { f(r) }

// Router wraps chi.Mux with request logging and panic recovery.
type Router struct {
	mux    *chi.Mux
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	r := &Router{mux: chi.NewRouter(), logger: logger}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(r.logRequests)
	r.mux.Use(middleware.Recoverer)

	return r
}

// SetXMLRoot enables ContentNegotiation with root tag root. Should be called before SetRoutes.
func (r *Router) SetXMLRoot(root string) {
	if root != "" {
		r.mux.Use(ContentNegotiation(root))
	}
}

// SetRoutes mounts every routes on Router.
func (r *Router) SetRoutes(routes []Routes) {
	for _, rs := range routes {
		r.mux.Group(rs.Mount)
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes returns chi.Routes for inspection (chi.Walk, tests).
func (r *Router) Routes() chi.Routes {
	return r.mux
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()

		defer func() {
			r.logger.Debug("request served",
				"method", req.Method,
				"path", req.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestID", middleware.GetReqID(req.Context()),
			)
		}()

		next.ServeHTTP(ww, req)
	})
}
