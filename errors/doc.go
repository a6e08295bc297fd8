// Package errors provides the HTTP error taxonomy used by handlers and the
// server. AppError carries a machine-readable code, a status and details;
// FromError maps arbitrary handler errors onto it so that every failure is
// rendered through the same {"error": {...}} envelope.
package errors
