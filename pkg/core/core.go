// Package core provides the central types and interfaces for the stoplight intersection library.
package core

import (
	"github.com/google/uuid"
)

// TaskID identifies the task that owns a lock
type TaskID uuid.UUID

// NoTask is the identity of no task at all
var NoTask TaskID

// NewTaskID creates a new random task identity
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// IsZero reports whether the id is NoTask
func (id TaskID) IsZero() bool {
	return id == NoTask
}

// String returns the canonical uuid form of the id
func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, enough for trace output
func (id TaskID) Short() string {
	return id.String()[:8]
}
