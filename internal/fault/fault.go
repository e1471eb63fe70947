// Package fault observes errors and panics that escape normal handling.
// Nothing reported here terminates the process.
package fault

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/ports"
)

// PanicError carries a recovered panic value and the stack it came from.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Catch runs fn and turns a panic into a *PanicError.
func Catch(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return fn()
}

type Reporter struct {
	notifier ports.ErrorNotifier
}

// NewReporter creates a reporter. notifier may be nil to only log.
func NewReporter(notifier ports.ErrorNotifier) *Reporter {
	return &Reporter{notifier: notifier}
}

func (r *Reporter) Report(guildID, source string, err error) {
	if err == nil {
		return
	}

	kind := "error"
	var pe *PanicError
	if errors.As(err, &pe) {
		kind = "panic"
		slog.Error("Recovered panic", "source", source, "guild_id", guildID, "panic", pe.Value, "stack", string(pe.Stack))
	} else {
		slog.Error("Fault observed", "source", source, "guild_id", guildID, "error", err)
	}

	metrics.Faults.WithLabelValues(source, kind).Inc()
	r.notify(guildID, source, err.Error())
}

// Recover must be called directly with defer.
func (r *Reporter) Recover(guildID, source string) {
	if v := recover(); v != nil {
		r.Report(guildID, source, &PanicError{Value: v, Stack: debug.Stack()})
	}
}

// Go runs fn on a new goroutine guarded by Recover.
func (r *Reporter) Go(source string, fn func()) {
	go func() {
		defer r.Recover("", source)
		fn()
	}()
}

func (r *Reporter) notify(guildID, source, message string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyError(guildID, source, message); err != nil {
		slog.Warn("Failed to forward fault to ops channel", "source", source, "error", err)
	}
}
