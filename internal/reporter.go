package internal

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter records the relay's own faults with the error tracker. The
// transform and notify paths only see this interface, so they stay testable
// without a live Sentry project.
type Reporter interface {
	CaptureError(err error)
	Flush(timeout time.Duration)
}

type sentryReporter struct{}

// NewSentryReporter initializes the Sentry SDK with the given DSN.
func NewSentryReporter(dsn, environment string) (Reporter, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, err
	}
	return sentryReporter{}, nil
}

func (sentryReporter) CaptureError(err error) {
	sentry.CaptureException(err)
}

func (sentryReporter) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// NopReporter discards everything. Used when no DSN is configured.
type NopReporter struct{}

func (NopReporter) CaptureError(err error)      {}
func (NopReporter) Flush(timeout time.Duration) {}
