// Package http implements the HTTP handlers of the deaths lookup API.
//
// Handlers stay thin: they parse path parameters, call the query service and
// render JSON with chi/render. Failures are turned into RFC 7807 problem
// documents by the shared errors.ErrorHandler, so a non-integer year in
//
//	GET /year/{year}/geo_code/{geo_code}
//
// answers 400 with an application/problem+json body, while an unknown year or
// geo code answers 200 with an empty data object.
package http
