// Package middleware holds the HTTP middleware of the intake server:
// W3C extended request logging, Prometheus request metrics and gzip
// compression of JSON responses.
package middleware
