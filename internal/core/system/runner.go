package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick. Systems sharing a phase
// keep their registration order.
type Runner struct {
	phases  map[Phase][]System
	order   []Phase
	observe func(Phase, time.Duration)
}

func NewRunner() *Runner {
	return &Runner{phases: make(map[Phase][]System, 8)}
}

// Observe installs fn to receive the wall time spent in each phase.
func (r *Runner) Observe(fn func(Phase, time.Duration)) {
	r.observe = fn
}

func (r *Runner) Register(s System) {
	p := s.Phase()
	if _, ok := r.phases[p]; !ok {
		r.order = append(r.order, p)
		sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	}
	r.phases[p] = append(r.phases[p], s)
}

func (r *Runner) Tick(dt time.Duration) {
	for _, p := range r.order {
		start := time.Now()
		for _, s := range r.phases[p] {
			s.Update(dt)
		}
		if r.observe != nil {
			r.observe(p, time.Since(start))
		}
	}
}
