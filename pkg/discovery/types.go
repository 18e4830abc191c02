package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ServiceType is what the media host announces. It must stay in sync
// with the host application.
const ServiceType = "_elixir-media._tcp.local."

const (
	DefaultTimeout = 1200 * time.Millisecond
	PollInterval   = 200 * time.Millisecond
)

var ErrDiscoveryInit = errors.New("unable to start service discovery")

// Record is a resolved service. Name is the fully qualified service
// instance name and is unique within one discovery run.
type Record struct {
	Name      string   `json:"name"      yaml:"name"`
	Host      string   `json:"host"      yaml:"host"`
	Port      uint16   `json:"port"      yaml:"port"`
	Addresses []string `json:"addresses" yaml:"addresses"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s:%d %v)", r.Name, r.Host, r.Port, r.Addresses)
}

// EventKind is the kind of a browse event. Only the resolved and error
// events affect Discover; the rest are accepted from any Browser and
// skipped.
type EventKind int

const (
	EventUndefined = EventKind(iota)
	EventSearchStarted
	EventServiceFound
	EventServiceResolved
	EventServiceRemoved
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventUndefined:
		return "undefined"
	case EventSearchStarted:
		return "search_started"
	case EventServiceFound:
		return "service_found"
	case EventServiceResolved:
		return "service_resolved"
	case EventServiceRemoved:
		return "service_removed"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("unknown_%d", int(k))
	}
}

type Event struct {
	Kind   EventKind
	Record Record
	Err    error
}

// Subscription is a running browse. The events channel is closed when the
// browse is over.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

type Browser interface {
	Browse(ctx context.Context, serviceType string) (Subscription, error)
}
