// Package component defines the lifecycle interfaces shared by the parts of
// an application that run alongside request handling.
//
// Components are registered with a Registry, started in registration order,
// stopped in reverse and polled for health by the /health endpoint.
package component
