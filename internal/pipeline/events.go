package pipeline

// Event is one progress update emitted to observers. The stream is
// append-only per run and resets when a new run starts.
type Event struct {
	RunID     string  `json:"run_id"`
	Stage     Stage   `json:"stage"`
	StepLabel string  `json:"step_label"`
	Percent   float64 `json:"percent"`
	Terminal  bool    `json:"terminal"`
	Err       string  `json:"error,omitempty"`
}

// Observer consumes orchestrator progress events, typically to drive a
// progress indicator. Publish must not block for long; it is called on the
// pipeline goroutine.
type Observer interface {
	Publish(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Publish(event Event) { f(event) }

type multiObserver []Observer

func (m multiObserver) Publish(event Event) {
	for _, obs := range m {
		if obs != nil {
			obs.Publish(event)
		}
	}
}
