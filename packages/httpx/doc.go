// Package httpx wraps net/http with the options and response shape the test
// engine needs: bounded timeouts, redirect and TLS control, proxy support,
// and synthetic responses for transport failures so the validation pipeline
// can run against unreachable endpoints.
package httpx
