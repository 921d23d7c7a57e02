// Package lifecycle generalizes the composable start/stop contract the
// Session Orchestrator (spec.md §4.H) builds its initialize()/cleanup()
// on, grounded directly on the teacher's pkg/service.RunnableService and
// Group.
package lifecycle

import (
	"context"
	"fmt"
)

// Service is any component a Group can hold; only those also
// implementing Runnable are started/stopped.
type Service interface{}

// Runnable is a component with an explicit start/stop lifecycle.
type Runnable interface {
	Service
	Run()
	Shutdown(ctx context.Context) error
}

// Group manages the lifecycle of a set of components, in the order they
// were added; Shutdown tears them down in the same order and collects
// every error rather than stopping at the first.
type Group struct {
	list []Service
}

func (g *Group) Add(services ...Service) { g.list = append(g.list, services...) }

// Start runs every Runnable member. Non-blocking members are expected to
// spawn their own goroutines from Run.
func (g *Group) Start() {
	for _, s := range g.list {
		if r, ok := s.(Runnable); ok {
			r.Run()
		}
	}
}

// Shutdown stops every Runnable member, continuing past individual
// failures and returning their combined error.
func (g *Group) Shutdown(ctx context.Context) error {
	var errs []error
	for _, s := range g.list {
		if r, ok := s.(Runnable); ok {
			if err := r.Shutdown(ctx); err != nil && err != context.Canceled {
				errs = append(errs, fmt.Errorf("%v: %w", s, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}
