package server

import (
	"net/http"
	"strings"
)

// BasicRouter routes requests by path and method on top of [http.ServeMux].
//
// Each registered path owns a method table, so several methods can share one
// pattern with distinct handlers. A request for a registered path with an
// unregistered method answers 405 instead of falling through to the mux.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	methods     map[string]map[string]http.Handler
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:     http.NewServeMux(),
		methods: make(map[string]map[string]http.Handler),
	}
}

// Use adds [Middleware] to the router's stack, applied in the order added.
// Middleware only wraps routes registered after it.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for one method on a path pattern.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	table, ok := r.methods[path]
	if !ok {
		table = make(map[string]http.Handler)
		r.methods[path] = table
		r.mux.Handle(path, dispatch(table))
	}
	table[strings.ToUpper(method)] = r.Apply(handler)
}

// Handler registers every route a [Handler] exposes.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(route.Method, route.Path, route.Handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

// dispatch picks the handler for the request method from the path's table.
func dispatch(table map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler, ok := table[strings.ToUpper(req.Method)]
		if !ok {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, req)
	})
}
