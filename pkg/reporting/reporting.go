// Package reporting forwards unexpected failures to Sentry.
//
// All functions are safe to call when reporting was never initialized; they
// become no-ops so tests and local runs need no DSN.
package reporting

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

var enabled atomic.Bool

// Options configures the Sentry client.
type Options struct {
	DSN         string
	Environment string
	Release     string
	App         string
}

// Init initializes Sentry. It returns false without error when no DSN is set.
func Init(opts Options) (bool, error) {
	if opts.DSN == "" {
		return false, nil
	}

	app := opts.App
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["app"] = app
			return event
		},
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	enabled.Store(true)
	return true, nil
}

// Enabled reports whether events are being forwarded.
func Enabled() bool {
	return enabled.Load()
}

// CaptureError sends err with the given tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil || !Enabled() {
		return
	}
	hub := sentry.CurrentHub()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Recover captures a panic and re-panics. Use as `defer reporting.Recover()`.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	if Enabled() {
		hub := sentry.CurrentHub()
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelFatal)
			scope.SetTag("panic", "true")
			if e, ok := r.(error); ok {
				hub.CaptureException(e)
			} else {
				hub.CaptureMessage(fmt.Sprintf("panic: %v", r))
			}
		})
		sentry.Flush(flushTimeout)
	}
	panic(r)
}

// Flush waits for buffered events to be delivered.
func Flush() {
	if Enabled() {
		sentry.Flush(flushTimeout)
	}
}
