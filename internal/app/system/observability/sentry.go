// Package observability wires optional error reporting.
package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry initialises the Sentry client. With an empty DSN it is a no-op.
// The returned func flushes buffered events and should run at shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err when a client is configured.
func CaptureErr(err error) {
	if err != nil && sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(err)
	}
}
