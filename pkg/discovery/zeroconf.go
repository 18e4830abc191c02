package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/libp2p/zeroconf/v2"
	"github.com/xaionaro-go/observability"
)

// DefaultStartupWait is how long Browse waits for zeroconf to fail right
// away (for example when there are no multicast interfaces).
const DefaultStartupWait = 100 * time.Millisecond

// BrowseFunc has the signature of zeroconf.Browse.
type BrowseFunc func(
	ctx context.Context,
	service string,
	domain string,
	entries chan<- *zeroconf.ServiceEntry,
	opts ...zeroconf.ClientOption,
) error

// ZeroconfBrowser browses the local network using mDNS/DNS-SD.
type ZeroconfBrowser struct {
	ClientOptions []zeroconf.ClientOption
	BrowseFunc    BrowseFunc
	StartupWait   time.Duration
	Clock         clock.Clock
}

var _ Browser = (*ZeroconfBrowser)(nil)

func NewZeroconfBrowser(opts ...zeroconf.ClientOption) *ZeroconfBrowser {
	return &ZeroconfBrowser{
		ClientOptions: opts,
		BrowseFunc:    zeroconf.Browse,
		StartupWait:   DefaultStartupWait,
		Clock:         clock.New(),
	}
}

// SplitServiceType splits a DNS-SD service type like
// "_elixir-media._tcp.local." into "_elixir-media._tcp" and "local".
func SplitServiceType(serviceType string) (string, string, error) {
	labels := strings.Split(strings.TrimSuffix(serviceType, "."), ".")
	for idx, label := range labels {
		if label != "_tcp" && label != "_udp" {
			continue
		}
		if idx == 0 || idx == len(labels)-1 {
			break
		}
		return strings.Join(labels[:idx+1], "."), strings.Join(labels[idx+1:], "."), nil
	}
	return "", "", fmt.Errorf("invalid service type '%s'", serviceType)
}

func (b *ZeroconfBrowser) Browse(
	ctx context.Context,
	serviceType string,
) (Subscription, error) {
	service, domain, err := SplitServiceType(serviceType)
	if err != nil {
		return nil, err
	}

	ctx, cancelFn := context.WithCancel(ctx)
	entries := make(chan *zeroconf.ServiceEntry, 16)
	browseResult := make(chan error, 1)
	observability.GoSafe(ctx, func(ctx context.Context) {
		logger.Debugf(ctx, "browsing for '%s' in '%s'", service, domain)
		browseResult <- b.BrowseFunc(ctx, service, domain, entries, b.ClientOptions...)
	})

	timer := b.Clock.Timer(b.StartupWait)
	defer timer.Stop()
	select {
	case err := <-browseResult:
		if err != nil {
			cancelFn()
			return nil, fmt.Errorf("unable to browse for '%s': %w", serviceType, err)
		}
		// the browse is already over; let forward see it
		browseResult <- nil
	case <-timer.C:
	}

	sub := &zeroconfSubscription{
		events:   make(chan Event),
		cancelFn: cancelFn,
	}
	observability.GoSafe(ctx, func(ctx context.Context) {
		sub.forward(ctx, entries, browseResult)
	})
	return sub, nil
}

type zeroconfSubscription struct {
	events   chan Event
	cancelFn context.CancelFunc
}

func (s *zeroconfSubscription) Events() <-chan Event {
	return s.events
}

func (s *zeroconfSubscription) Close() error {
	s.cancelFn()
	return nil
}

// forward translates entries into events until the browse is over. After
// cancellation it keeps draining entries, so the browser never blocks on
// sending them.
func (s *zeroconfSubscription) forward(
	ctx context.Context,
	entries <-chan *zeroconf.ServiceEntry,
	browseResult <-chan error,
) {
	defer close(s.events)
	done := ctx.Done()
	isCancelled := false
	for {
		select {
		case <-done:
			done = nil
			isCancelled = true
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if entry == nil || isCancelled {
				continue
			}
			s.send(ctx, eventFromServiceEntry(entry))
		case err := <-browseResult:
			browseResult = nil
			switch {
			case err != nil:
				if !isCancelled && ctx.Err() == nil {
					s.send(ctx, Event{Kind: EventError, Err: err})
				}
				return
			case isCancelled || ctx.Err() != nil:
				return
			}
		}
	}
}

func (s *zeroconfSubscription) send(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// eventFromServiceEntry converts a zeroconf entry. zeroconf only reports
// resolved services: expired ones are dropped inside the library.
func eventFromServiceEntry(entry *zeroconf.ServiceEntry) Event {
	return Event{
		Kind:   EventServiceResolved,
		Record: RecordFromServiceEntry(entry),
	}
}

func RecordFromServiceEntry(entry *zeroconf.ServiceEntry) Record {
	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, addr := range entry.AddrIPv4 {
		addresses = append(addresses, addr.String())
	}
	for _, addr := range entry.AddrIPv6 {
		addresses = append(addresses, addr.String())
	}
	return Record{
		Name:      entry.ServiceInstanceName(),
		Host:      entry.HostName,
		Port:      uint16(entry.Port),
		Addresses: addresses,
	}
}
