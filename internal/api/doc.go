// Package api contains the HTTP handlers, request/response models and
// error mapping for the academic cycle engine's REST surface. Handlers
// authenticate via the middleware-provided acting account, resolve the
// owning tenant through the service layer, and never expose raw internal
// errors to clients.
package api
