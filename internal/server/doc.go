// Package server exposes the track enrichment API over HTTP.
//
// # Router Infrastructure
//
// [BasicRouter] routes by path and method on top of [http.ServeMux]: each
// [Route] binds one method on a path pattern, several methods can share a
// pattern, and an unregistered method answers 405.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// # Endpoints
//
// [EnrichmentHandler] implements the [Handler] interface and serves the
// JSON API:
//
//	POST /api/resolution            submit a batch resolution task
//	GET  /api/resolution/{id}       poll task status
//	POST /api/resolution/{id}/stop  request a cooperative stop
//	GET  /api/search                semantic track search
//	GET  /api/statistics            catalog enrichment coverage
//
// Submitting while a task is active returns the active task with 200 rather
// than creating a new one; a fresh submission answers 202. Resolution
// workers run on a long-lived context owned by the process, not the request,
// so an aborted POST never kills a running batch.
package server
