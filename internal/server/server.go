package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, panic recovery, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Route binds one HTTP method on a path pattern to its handler.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
}

// Handler exposes a group of related routes for registration on a router.
type Handler interface {
	Routes() []Route
}
