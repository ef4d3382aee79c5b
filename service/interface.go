// Package service defines the lifecycle of long-running chunkflow subsystems and the hub that orders them
package service

import "context"

// Service defines the lifecycle interface for infrastructure subsystems
// Services manage long-lived resources: the HTTP listener, the simulation ticker
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init(ctx) - validate wiring, bind resources that may fail
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init and Start before this one
	Dependencies() []string

	// Init prepares the service; ctx bounds any blocking setup
	Init(ctx context.Context) error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
