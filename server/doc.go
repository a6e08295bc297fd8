// Package server hosts the Gin engine endpoints are mounted on.
//
// It provides the HTTP server (HTTP/1.1 and h2c), the standard middleware
// stack, the shared JSON error responder and the /health, /ready and /info
// endpoints. The server is a component.Component so the application
// lifecycle can start and stop it.
package server
