// Package async decouples a long-running operation from the observer of its
// progress events. A build reports stage transitions through a Reporter while
// a relay goroutine feeds them to the caller's callback, so a slow observer
// never stalls a toolchain invocation and an observer never receives events
// from an operation that already finished.
package async

// Reporter is the write side of one operation's progress stream. Obtain one
// through Observe; the zero value has no channel behind it and must not be
// used.
type Reporter[T any] struct {
	events chan T
}

// Report publishes one progress event to the observer. It must not be called
// after the operation function has returned.
func (r *Reporter[T]) Report(event T) {
	r.events <- event
}

// Observe runs op, relaying every event it reports to observer from a
// dedicated goroutine. Observe returns op's result only after the final event
// has been delivered, so the observer is never invoked once Observe has
// returned.
func Observe[T any, R any](observer func(T), op func(*Reporter[T]) (R, error)) (R, error) {
	reporter := &Reporter[T]{events: make(chan T)}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for event := range reporter.events {
			observer(event)
		}
	}()

	result, err := op(reporter)
	close(reporter.events)
	<-drained

	return result, err
}
