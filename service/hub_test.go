package service

import (
	"context"
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

type fakeService struct {
	name    string
	deps    []string
	failOn  string
	journal *[]string
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(context.Context) error {
	*f.journal = append(*f.journal, "init:"+f.name)
	if f.failOn == "init" {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeService) Start() error {
	*f.journal = append(*f.journal, "start:"+f.name)
	if f.failOn == "start" {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeService) Stop() error {
	*f.journal = append(*f.journal, "stop:"+f.name)
	return nil
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return NewHub(logger)
}

func TestHubLifecycleOrder(t *testing.T) {
	var journal []string
	h := newTestHub(t)
	for _, svc := range []*fakeService{
		{name: "http", deps: []string{"simulation"}, journal: &journal},
		{name: "simulation", journal: &journal},
	} {
		if err := h.Register(svc); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	if err := h.InitAll(context.Background()); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	h.StopAll()
	h.StopAll() // idempotent at hub level

	want := []string{"init:simulation", "init:http", "start:simulation", "start:http", "stop:http", "stop:simulation"}
	if len(journal) != len(want) {
		t.Fatalf("Expected %v, got %v", want, journal)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], journal[i])
		}
	}

	sim := MustGet[*fakeService](h, "simulation")
	if sim.name != "simulation" {
		t.Errorf("Expected simulation, got %s", sim.name)
	}
}

func TestHubStartRollback(t *testing.T) {
	var journal []string
	h := newTestHub(t)
	h.Register(&fakeService{name: "a", journal: &journal})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, failOn: "start", journal: &journal})

	if err := h.InitAll(context.Background()); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	if err := h.StartAll(); err == nil {
		t.Fatal("Expected start failure")
	}
	if last := journal[len(journal)-1]; last != "stop:a" {
		t.Errorf("Expected rollback to stop a, got %s", last)
	}
}

func TestHubRegistrationErrors(t *testing.T) {
	var journal []string
	h := newTestHub(t)
	h.Register(&fakeService{name: "a", deps: []string{"b"}, journal: &journal})
	if err := h.Register(&fakeService{name: "a", journal: &journal}); !errors.Is(err, ErrDuplicateService) {
		t.Errorf("Expected ErrDuplicateService, got %v", err)
	}
	if err := h.InitAll(context.Background()); err == nil {
		t.Error("Expected error for unregistered dependency")
	}

	h.Register(&fakeService{name: "b", deps: []string{"a"}, journal: &journal})
	if err := h.InitAll(context.Background()); !errors.Is(err, ErrCircularDepends) {
		t.Errorf("Expected ErrCircularDepends, got %v", err)
	}
	if names := h.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("unexpected names %v", names)
	}
}
