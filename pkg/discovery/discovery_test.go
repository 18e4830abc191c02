package discovery

import (
	"context"
	"errors"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/libp2p/zeroconf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	events chan Event
	closed bool
}

func (s *fakeSubscription) Events() <-chan Event {
	return s.events
}

func (s *fakeSubscription) Close() error {
	s.closed = true
	return nil
}

// fakeBrowser announces the given events (with an optional delay each)
// and then stays silent.
type fakeBrowser struct {
	events      []Event
	delay       time.Duration
	closeAfter  bool
	err         error
	serviceType string
	sub         *fakeSubscription
}

func (b *fakeBrowser) Browse(ctx context.Context, serviceType string) (Subscription, error) {
	b.serviceType = serviceType
	if b.err != nil {
		return nil, b.err
	}
	b.sub = &fakeSubscription{events: make(chan Event)}
	go func() {
		for _, ev := range b.events {
			if b.delay > 0 {
				time.Sleep(b.delay)
			}
			select {
			case b.sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if b.closeAfter {
			close(b.sub.events)
		}
	}()
	return b.sub, nil
}

func resolved(name, host string, port uint16, addrs ...string) Event {
	return Event{
		Kind:   EventServiceResolved,
		Record: Record{Name: name, Host: host, Port: port, Addresses: addrs},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestDiscoverSingleHost(t *testing.T) {
	b := &fakeBrowser{
		events: []Event{
			{Kind: EventSearchStarted},
			{Kind: EventServiceFound},
			resolved("media._elixir-media._tcp.local.", "host.local", 8080, "192.168.1.10"),
			// a removal does not take back what was already resolved
			{Kind: EventServiceRemoved, Record: Record{Name: "media._elixir-media._tcp.local."}},
		},
	}
	d := New(b)

	startedAt := time.Now()
	records, err := d.Discover(context.Background(), ptr(500*time.Millisecond))
	elapsed := time.Since(startedAt)
	require.NoError(t, err)
	require.Equal(t, []Record{{
		Name:      "media._elixir-media._tcp.local.",
		Host:      "host.local",
		Port:      8080,
		Addresses: []string{"192.168.1.10"},
	}}, records)
	require.Equal(t, ServiceType, b.serviceType)
	require.True(t, b.sub.closed)
	assert.Less(t, elapsed, 500*time.Millisecond+100*time.Millisecond)
}

func TestDiscoverNothing(t *testing.T) {
	d := New(&fakeBrowser{})

	startedAt := time.Now()
	records, err := d.Discover(context.Background(), ptr(300*time.Millisecond))
	elapsed := time.Since(startedAt)
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
	require.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	require.Less(t, elapsed, 300*time.Millisecond+100*time.Millisecond)
}

func TestDiscoverFirstResolutionWins(t *testing.T) {
	b := &fakeBrowser{
		events: []Event{
			resolved("a._elixir-media._tcp.local.", "first.local", 1, "10.0.0.1"),
			resolved("b._elixir-media._tcp.local.", "other.local", 2, "10.0.0.2"),
			resolved("a._elixir-media._tcp.local.", "second.local", 3, "10.0.0.3"),
		},
	}
	records, err := New(b).Discover(context.Background(), ptr(300*time.Millisecond))
	require.NoError(t, err)
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	require.Len(t, records, 2)
	require.Equal(t, "first.local", records[0].Host)
	require.Equal(t, uint16(1), records[0].Port)
	require.Equal(t, "other.local", records[1].Host)
}

func TestDiscoverQuietPollsDoNotStop(t *testing.T) {
	// each event comes later than a poll interval
	b := &fakeBrowser{
		delay: 120 * time.Millisecond,
		events: []Event{
			resolved("a._elixir-media._tcp.local.", "a.local", 1),
			resolved("b._elixir-media._tcp.local.", "b.local", 2),
		},
	}
	d := New(b, OptionPollInterval(50*time.Millisecond))
	records, err := d.Discover(context.Background(), ptr(600*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestDiscoverStopsEarly(t *testing.T) {
	for name, b := range map[string]*fakeBrowser{
		"closed": {
			events:     []Event{resolved("a._elixir-media._tcp.local.", "a.local", 1)},
			closeAfter: true,
		},
		"error": {
			events: []Event{
				resolved("a._elixir-media._tcp.local.", "a.local", 1),
				{Kind: EventError, Err: errors.New("interface went down")},
				resolved("b._elixir-media._tcp.local.", "b.local", 2),
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			startedAt := time.Now()
			records, err := New(b).Discover(context.Background(), ptr(2*time.Second))
			require.NoError(t, err)
			require.Len(t, records, 1)
			require.Less(t, time.Since(startedAt), time.Second)
		})
	}
}

func TestDiscoverCancelled(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	startedAt := time.Now()
	records, err := New(&fakeBrowser{}).Discover(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, records)
	require.Less(t, time.Since(startedAt), DefaultTimeout)
}

func TestDiscoverInitError(t *testing.T) {
	_, err := New(&fakeBrowser{err: errors.New("no multicast interfaces")}).Discover(context.Background(), nil)
	require.ErrorIs(t, err, ErrDiscoveryInit)
}

func TestSplitServiceType(t *testing.T) {
	service, domain, err := SplitServiceType(ServiceType)
	require.NoError(t, err)
	require.Equal(t, "_elixir-media._tcp", service)
	require.Equal(t, "local", domain)

	for _, bad := range []string{"", "local.", "_tcp.local.", "_elixir-media._tcp", "_elixir-media._tcp."} {
		_, _, err := SplitServiceType(bad)
		require.Error(t, err, bad)
	}
}

func newServiceEntry(instance string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  "_elixir-media._tcp",
			Domain:   "local",
		},
	}
}

func TestRecordFromServiceEntry(t *testing.T) {
	entry := newServiceEntry("media")
	entry.HostName = "host.local."
	entry.Port = 8080
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.10")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	ev := eventFromServiceEntry(entry)
	require.Equal(t, EventServiceResolved, ev.Kind)
	require.Equal(t, Record{
		Name:      "media._elixir-media._tcp.local.",
		Host:      "host.local.",
		Port:      8080,
		Addresses: []string{"192.168.1.10", "fe80::1"},
	}, ev.Record)
}

func TestZeroconfSubscriptionForward(t *testing.T) {
	ctx := context.Background()

	t.Run("entries", func(t *testing.T) {
		entries := make(chan *zeroconf.ServiceEntry, 2)
		browseResult := make(chan error, 1)
		ctx, cancelFn := context.WithCancel(ctx)
		sub := &zeroconfSubscription{events: make(chan Event), cancelFn: cancelFn}
		go sub.forward(ctx, entries, browseResult)

		entries <- newServiceEntry("media")
		ev := <-sub.Events()
		require.Equal(t, "media._elixir-media._tcp.local.", ev.Record.Name)

		require.NoError(t, sub.Close())
		browseResult <- nil
		for range sub.Events() {
		}
	})

	t.Run("browse-error", func(t *testing.T) {
		entries := make(chan *zeroconf.ServiceEntry)
		browseResult := make(chan error, 1)
		ctx, cancelFn := context.WithCancel(ctx)
		defer cancelFn()
		sub := &zeroconfSubscription{events: make(chan Event), cancelFn: cancelFn}
		go sub.forward(ctx, entries, browseResult)

		browseResult <- errors.New("no multicast interfaces")
		ev, ok := <-sub.Events()
		require.True(t, ok)
		require.Equal(t, EventError, ev.Kind)
		_, ok = <-sub.Events()
		require.False(t, ok)
	})
}

// announceAndWait behaves like zeroconf.Browse on a network with the given
// instances: it reports them and closes entries once ctx is done.
func announceAndWait(instances ...string) BrowseFunc {
	return func(
		ctx context.Context,
		service string,
		domain string,
		entries chan<- *zeroconf.ServiceEntry,
		opts ...zeroconf.ClientOption,
	) error {
		for _, instance := range instances {
			entry := newServiceEntry(instance)
			entry.HostName = instance + ".local."
			entry.Port = 4000
			select {
			case entries <- entry:
			case <-ctx.Done():
			}
		}
		<-ctx.Done()
		close(entries)
		return nil
	}
}

func newTestZeroconfBrowser(fn BrowseFunc) *ZeroconfBrowser {
	b := NewZeroconfBrowser()
	b.BrowseFunc = fn
	b.StartupWait = 10 * time.Millisecond
	return b
}

func TestZeroconfBrowserImmediateFailure(t *testing.T) {
	ctx := context.Background()
	b := newTestZeroconfBrowser(func(
		ctx context.Context,
		service string,
		domain string,
		entries chan<- *zeroconf.ServiceEntry,
		opts ...zeroconf.ClientOption,
	) error {
		return errors.New("no suitable multicast interface found")
	})
	b.StartupWait = time.Second

	_, err := b.Browse(ctx, ServiceType)
	require.Error(t, err)

	_, err = New(b).Discover(ctx, nil)
	require.ErrorIs(t, err, ErrDiscoveryInit)
}

func TestZeroconfBrowserDiscover(t *testing.T) {
	ctx := context.Background()
	var gotService, gotDomain string
	announce := announceAndWait("media", "media", "other")
	b := newTestZeroconfBrowser(func(
		ctx context.Context,
		service string,
		domain string,
		entries chan<- *zeroconf.ServiceEntry,
		opts ...zeroconf.ClientOption,
	) error {
		gotService, gotDomain = service, domain
		return announce(ctx, service, domain, entries, opts...)
	})

	timeout := 200 * time.Millisecond
	records, err := New(b, OptionPollInterval(20*time.Millisecond)).Discover(ctx, &timeout)
	require.NoError(t, err)
	require.Equal(t, "_elixir-media._tcp", gotService)
	require.Equal(t, "local", gotDomain)

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	require.Len(t, records, 2)
	assert.Equal(t, "media._elixir-media._tcp.local.", records[0].Name)
	assert.Equal(t, "other._elixir-media._tcp.local.", records[1].Name)
	assert.Equal(t, uint16(4000), records[1].Port)
}

func TestZeroconfBrowserEndsWhenEntriesClose(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	b := newTestZeroconfBrowser(announceAndWait())

	sub, err := b.Browse(ctx, ServiceType)
	require.NoError(t, err)
	cancelFn()
	for range sub.Events() {
	}
}
