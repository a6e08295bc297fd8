// Package middleware contains the Gin middleware stack installed by
// server.ApplyMiddleware.
package middleware
