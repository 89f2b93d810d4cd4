package core

import (
	"context"
	"log/slog"
)

type EventKind int

const (
	RequestStarted EventKind = iota
	RequestFinished
	Succeeded
	Warning
	Fatal
)

func (k EventKind) String() string {
	switch k {
	case RequestStarted:
		return "request-started"
	case RequestFinished:
		return "request-finished"
	case Succeeded:
		return "operation-succeeded"
	case Warning:
		return "warning"
	case Fatal:
		return "fatal-error"
	}
	return "unknown"
}

type Event struct {
	Kind    EventKind
	Message string
	Err     error
}

// Observer receives lifecycle events of a client, presentation layers use
// them to drive progress indicators and logging.
type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Emitter fans events out to every subscribed observer. A nil Emitter
// drops events.
type Emitter struct {
	observers []Observer
}

func (e *Emitter) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Emitter) emit(event Event) {
	if e == nil {
		return
	}
	for _, o := range e.observers {
		o.OnEvent(event)
	}
}

func (e *Emitter) RequestStarted(message string) {
	e.emit(Event{Kind: RequestStarted, Message: message})
}

func (e *Emitter) RequestFinished() {
	e.emit(Event{Kind: RequestFinished})
}

func (e *Emitter) Success(message string) {
	e.emit(Event{Kind: Succeeded, Message: message})
}

func (e *Emitter) Warn(message string) {
	e.emit(Event{Kind: Warning, Message: message})
}

func (e *Emitter) Fatal(err error) {
	e.emit(Event{Kind: Fatal, Message: err.Error(), Err: err})
}

// Recorder keeps every event it sees.
type Recorder struct {
	Events []Event
}

func (r *Recorder) OnEvent(e Event) {
	r.Events = append(r.Events, e)
}

func (r *Recorder) Kinds() []EventKind {
	kinds := make([]EventKind, len(r.Events))
	for i, e := range r.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *Recorder) Messages(kind EventKind) []string {
	var messages []string
	for _, e := range r.Events {
		if e.Kind == kind {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

func (r *Recorder) Reset() {
	r.Events = nil
}

// LogObserver writes events to a slog logger, nil means slog.Default().
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()
	switch e.Kind {
	case RequestStarted:
		logger.DebugContext(ctx, "request started", "message", e.Message)
	case RequestFinished:
		logger.DebugContext(ctx, "request finished")
	case Succeeded:
		logger.InfoContext(ctx, e.Message)
	case Warning:
		logger.WarnContext(ctx, e.Message)
	case Fatal:
		logger.ErrorContext(ctx, "operation failed", "err", e.Err)
	}
}
