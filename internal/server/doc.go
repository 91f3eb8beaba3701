// Package server implements the HTTP server and HTTP handlers for
// the maillist service. It wires together the API routes, dependencies
// (database, stores, snapshot exporter), and provides lifecycle helpers
// used by tests and the production binary.
package server
