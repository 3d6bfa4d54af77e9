package routing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-injector/framework/container"
)

// Router wraps chi.Router with Laravel-style helpers and resolves route
// actions from the container.
type Router struct {
	mux chi.Router
	app *container.Container
	log *zap.Logger
}

// New creates a Router with sane defaults (RequestID, RealIP, request logging, Recoverer).
func New(app *container.Container, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	return &Router{mux: r, app: app, log: log}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Mount attaches a plain http.Handler under pattern, e.g. the metrics endpoint.
func (r *Router) Mount(pattern string, h http.Handler) { r.mux.Mount(pattern, h) }

// ── Actions ──────────────────────────────────────────────────────────────────

// Action turns an injectable function into a handler, like Laravel's
// Route::get('/reports/{month}', [ReportController::class, 'show']).
//
// names label the function's parameters positionally. On every request the
// parameters named "w", "r" and "ctx" receive the response writer, the
// request and its context, and a parameter named like a route placeholder
// receives its value. Everything else is resolved from the container.
// Without names the first two parameters are called "w" and "r".
//
//	r.Get("/reports/{month}", r.Action(func(w http.ResponseWriter, month string, svc *ReportService) error {
//	    return routing.JSON(w, http.StatusOK, svc.For(month))
//	}, "w", "month"))
//
// A non-nil value returned by the function is sent as JSON {"data": v}; a
// non-nil error becomes a 500 response. Action panics if handler is not a
// function, like chi does for an invalid pattern.
func (r *Router) Action(handler any, names ...string) http.HandlerFunc {
	if len(names) == 0 {
		names = []string{"w", "r"}
	}
	fn, err := r.app.Wrap(container.Func(handler, names...), nil)
	if err != nil {
		panic(err)
	}

	return func(w http.ResponseWriter, req *http.Request) {
		params := container.Params{"w": w, "r": req, "ctx": req.Context()}
		if rc := chi.RouteContext(req.Context()); rc != nil {
			for i, key := range rc.URLParams.Keys {
				params[key] = rc.URLParams.Values[i]
			}
		}

		out, err := fn.InvokeContext(req.Context(), params)
		if err != nil {
			r.fail(w, req, err)
			return
		}
		for _, v := range out {
			if _, isErr := v.(error); v != nil && !isErr {
				Success(w, v)
				return
			}
		}
	}
}

// fail logs a failed action and answers 500. Resolution failures are
// configuration errors, so they are logged at error level with the chain.
func (r *Router) fail(w http.ResponseWriter, req *http.Request, err error) {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", middleware.GetReqID(req.Context())),
		zap.Error(err),
	}
	var unresolvable *container.NotResolvableError
	if errors.As(err, &unresolvable) || errors.Is(err, container.ErrUninstantiable) {
		r.log.Error("action dependencies not resolvable", fields...)
	} else {
		r.log.Warn("action failed", fields...)
	}
	ServerError(w)
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group (Laravel: Route::group([], fn)).
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, app: r.app, log: r.log})
	})
}

// Prefix creates a sub-router with a URL prefix (Laravel: Route::prefix('/api')).
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, app: r.app, log: r.log})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful routes of a resource.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers the routes of the controller bound to abstraction. The
// controller is resolved on every request, so transient controllers get
// fresh dependencies.
func (r *Router) Resource(pattern, abstraction string) {
	with := func(h func(ResourceController, http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			ctrl, err := container.Resolve[ResourceController](r.app, abstraction)
			if err != nil {
				r.fail(w, req, err)
				return
			}
			h(ctrl, w, req)
		}
	}
	r.mux.Get(pattern, with(ResourceController.Index))
	r.mux.Post(pattern, with(ResourceController.Store))
	r.mux.Get(pattern+"/{id}", with(ResourceController.Show))
	r.mux.Put(pattern+"/{id}", with(ResourceController.Update))
	r.mux.Patch(pattern+"/{id}", with(ResourceController.Update))
	r.mux.Delete(pattern+"/{id}", with(ResourceController.Destroy))
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param, like $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes lists the registered routes as "METHOD pattern".
func (r *Router) Routes() []string {
	var out []string
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+route)
		return nil
	})
	return out
}
