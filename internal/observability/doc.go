// Package observability provides structured logging and Prometheus metrics
// for the complaint API.
package observability
