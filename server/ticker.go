package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/navigation"
)

// SimulationService advances the simulation on a fixed tick and publishes each snapshot
type SimulationService struct {
	sim  *navigation.Simulation
	hub  *Broadcaster
	tick time.Duration
	log  logrus.FieldLogger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewSimulationService(sim *navigation.Simulation, hub *Broadcaster, tick time.Duration, log logrus.FieldLogger) *SimulationService {
	return &SimulationService{
		sim:  sim,
		hub:  hub,
		tick: tick,
		log:  log.WithField("component", "simulation-service"),
	}
}

func (s *SimulationService) Name() string           { return "simulation" }
func (s *SimulationService) Dependencies() []string { return nil }

func (s *SimulationService) Init(context.Context) error {
	if s.tick <= 0 {
		return fmt.Errorf("simulation tick %v must be positive", s.tick)
	}
	return nil
}

func (s *SimulationService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	s.log.WithField("tick", s.tick).Info("Simulation running")
	return nil
}

func (s *SimulationService) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.hub.Publish(s.sim.Tick(s.tick))
		}
	}
}

func (s *SimulationService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
	return nil
}
