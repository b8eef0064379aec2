package ecs

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// systemMetadata is a registered system.
type systemMetadata struct {
	name   string
	access access       // Components and system events the system reads and writes
	fn     func() error // Runs the system against its state
}

// systemScheduler runs the systems of one hook. A system waits for every earlier registered system
// whose access conflicts with its own, everything else runs concurrently. Systems that only read the
// same components never wait for each other.
type systemScheduler struct {
	systems    []systemMetadata
	dependents [][]int        // System index -> later systems waiting for it
	waitsFor   []int32        // System index -> number of earlier systems it waits for
	pending    []atomic.Int32 // Dependencies left during a run, reset from waitsFor
	roots      []int          // Systems that wait for nothing
}

func newSystemScheduler() systemScheduler {
	return systemScheduler{systems: make([]systemMetadata, 0)}
}

func (s *systemScheduler) register(name string, acc access, fn func() error) {
	s.systems = append(s.systems, systemMetadata{name: name, access: acc, fn: fn})
}

// createSchedule computes the dependencies between the registered systems. Must be called after the
// last registration and before the first Run.
func (s *systemScheduler) createSchedule() {
	s.dependents, s.waitsFor = buildDependencyGraph(s.systems)
	s.pending = make([]atomic.Int32, len(s.systems))
	s.roots = s.roots[:0]
	for id, n := range s.waitsFor {
		if n == 0 {
			s.roots = append(s.roots, id)
		}
	}
}

// Run executes every system once. All systems run even if some fail, the first error is returned.
func (s *systemScheduler) Run() error {
	switch len(s.systems) {
	case 0:
		return nil
	case 1:
		return s.runSystem(0)
	}

	for id, n := range s.waitsFor {
		s.pending[id].Store(n)
	}
	ready := make(chan int, len(s.systems))
	for _, id := range s.roots {
		ready <- id
	}

	var g errgroup.Group
	for range s.systems {
		id := <-ready
		g.Go(func() error {
			err := s.runSystem(id)
			// Dependents are released on failure too, the loop expects every system.
			for _, next := range s.dependents[id] {
				if s.pending[next].Add(-1) == 0 {
					ready <- next
				}
			}
			return err
		})
	}
	return g.Wait()
}

func (s *systemScheduler) runSystem(id int) error {
	if err := s.systems[id].fn(); err != nil {
		return eris.Wrapf(err, "system %s failed", s.systems[id].name)
	}
	return nil
}

// buildDependencyGraph returns, for each system, the later systems that conflict with it and the
// number of earlier systems it conflicts with. Edges always point forward in registration order so
// the graph is acyclic.
func buildDependencyGraph(systems []systemMetadata) ([][]int, []int32) {
	dependents := make([][]int, len(systems))
	waitsFor := make([]int32, len(systems))
	for later := range systems {
		for earlier := range later {
			if systems[earlier].access.conflicts(&systems[later].access) {
				dependents[earlier] = append(dependents[earlier], later)
				waitsFor[later]++
			}
		}
	}
	return dependents, waitsFor
}
