package relay

import (
	"fmt"

	"imagerelay/internal/domain"
)

// Fault classifies who is responsible for a failed generation.
type Fault int

const (
	FaultInternal Fault = iota
	FaultClient
)

func (f Fault) String() string {
	if f == FaultClient {
		return "client"
	}
	return "internal"
}

// ServiceError is the only error Run returns. Message is safe to show callers;
// Err keeps the full chain for logs.
type ServiceError struct {
	Fault   Fault
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return "relay: " + e.Message
	}
	return fmt.Sprintf("relay: %s: %v", e.Message, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Kind returns the domain error kind behind the failure, or nil.
func (e *ServiceError) Kind() error {
	return domain.KindOf(e.Err)
}
