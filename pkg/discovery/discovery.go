package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/facebookincubator/go-belt/tool/logger"
)

type Discoverer struct {
	Browser        Browser
	Clock          clock.Clock
	DefaultTimeout time.Duration
	PollInterval   time.Duration
}

func New(
	browser Browser,
	opts ...Option,
) *Discoverer {
	d := &Discoverer{
		Browser:        browser,
		Clock:          clock.New(),
		DefaultTimeout: DefaultTimeout,
		PollInterval:   PollInterval,
	}
	Options(opts).apply(d)
	return d
}

// Discover browses for ServiceType for up to timeout (DefaultTimeout if
// nil) and returns every service resolved meanwhile, in no particular
// order. If a name is resolved more than once, the first resolution wins.
func (d *Discoverer) Discover(
	ctx context.Context,
	timeout *time.Duration,
) (_ret []Record, _err error) {
	budget := d.DefaultTimeout
	if timeout != nil {
		budget = *timeout
	}
	logger.Debugf(ctx, "Discover(ctx, %v)", budget)
	defer func() { logger.Debugf(ctx, "/Discover(ctx, %v): %d records, %v", budget, len(_ret), _err) }()

	startedAt := d.Clock.Now()
	sub, err := d.Browser.Browse(ctx, ServiceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscoveryInit, err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Debugf(ctx, "unable to close the browse subscription: %v", err)
		}
	}()

	found := map[string]Record{}
	events := sub.Events()
	for {
		remaining := budget - d.Clock.Since(startedAt)
		if remaining <= 0 {
			break
		}
		wait := d.PollInterval
		if wait <= 0 || wait > remaining {
			wait = remaining
		}

		ev, isClosed, isTimeout := d.poll(ctx, events, wait)
		if isTimeout {
			continue
		}
		if isClosed {
			logger.Debugf(ctx, "the browse ended early: %v", ctx.Err())
			break
		}

		if ev.Kind == EventError {
			logger.Debugf(ctx, "the browse failed: %v", ev.Err)
			break
		}
		if ev.Kind != EventServiceResolved {
			logger.Tracef(ctx, "skipping event %s", ev.Kind)
			continue
		}
		if _, ok := found[ev.Record.Name]; ok {
			logger.Tracef(ctx, "'%s' is already resolved, skipping", ev.Record.Name)
			continue
		}
		logger.Debugf(ctx, "resolved %s", ev.Record)
		found[ev.Record.Name] = ev.Record
	}

	result := make([]Record, 0, len(found))
	for _, record := range found {
		result = append(result, record)
	}
	return result, nil
}

func (d *Discoverer) poll(
	ctx context.Context,
	events <-chan Event,
	wait time.Duration,
) (_ev Event, _isClosed bool, _isTimeout bool) {
	timer := d.Clock.Timer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Event{}, true, false
	case <-timer.C:
		return Event{}, false, true
	case ev, ok := <-events:
		return ev, !ok, false
	}
}

type Option interface {
	apply(*Discoverer)
}

type Options []Option

func (opts Options) apply(d *Discoverer) {
	for _, opt := range opts {
		opt.apply(d)
	}
}

type OptionDefaultTimeout time.Duration

func (opt OptionDefaultTimeout) apply(d *Discoverer) {
	d.DefaultTimeout = time.Duration(opt)
}

type OptionPollInterval time.Duration

func (opt OptionPollInterval) apply(d *Discoverer) {
	d.PollInterval = time.Duration(opt)
}

type OptionClock struct {
	clock.Clock
}

func (opt OptionClock) apply(d *Discoverer) {
	d.Clock = opt.Clock
}
