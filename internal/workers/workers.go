package workers

// Workers starts and drains a set of background loops as one unit.
type Workers struct {
	workers []Worker
}

// NewWorkers bundles the given workers. They start in the given order
// and stop in reverse.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run starts every worker.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// Stop drains the workers in reverse start order, blocking until each
// has finished.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
