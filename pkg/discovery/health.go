package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

const (
	HealthPath         = "/health"
	HealthCheckTimeout = 1500 * time.Millisecond
	HealthUserAgent    = "ElixirClient/1.0"
)

// Health is the result of a reachability check of a discovered host.
type Health struct {
	Record    Record `json:"record"    yaml:"record"`
	Endpoint  string `json:"endpoint"  yaml:"endpoint"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	Detail    string `json:"detail"    yaml:"detail"`
}

// HealthChecker tells if a media host answers on its health endpoint.
type HealthChecker struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		Client:    &http.Client{},
		Timeout:   HealthCheckTimeout,
		UserAgent: HealthUserAgent,
	}
}

// NormalizeEndpoint turns "host:port" (or an URL) into a base URL
// without a trailing slash. Returns an empty string for an empty input.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// Endpoint is the base URL of the host on the local network. The host
// name is preferred over the addresses; mDNS host names end with a dot,
// which is dropped.
func (r Record) Endpoint() string {
	host := strings.TrimSuffix(r.Host, ".")
	if host == "" && len(r.Addresses) > 0 {
		host = r.Addresses[0]
	}
	if host == "" {
		return ""
	}
	return NormalizeEndpoint(net.JoinHostPort(host, strconv.FormatUint(uint64(r.Port), 10)))
}

// CheckEndpoint requests HealthPath of the endpoint. A 2xx status means
// the host is reachable. detail is "OK", "HTTP <status>", "Timeout" or
// the transport error.
func (c *HealthChecker) CheckEndpoint(
	ctx context.Context,
	endpoint string,
) (_reachable bool, _detail string) {
	logger.Tracef(ctx, "CheckEndpoint(ctx, '%s')", endpoint)
	defer func() { logger.Tracef(ctx, "/CheckEndpoint(ctx, '%s'): %t %s", endpoint, _reachable, _detail) }()

	base := NormalizeEndpoint(endpoint)
	if base == "" {
		return false, "no endpoint"
	}

	if c.Timeout > 0 {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(ctx, c.Timeout)
		defer cancelFn()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+HealthPath, nil)
	if err != nil {
		return false, fmt.Sprintf("unable to build the request: %v", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, "Timeout"
		}
		return false, err.Error()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, "OK"
	}
	return false, fmt.Sprintf("HTTP %d", resp.StatusCode)
}

func (c *HealthChecker) client() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

// CheckAll checks all the records concurrently. The results are in the
// order of the records.
func (c *HealthChecker) CheckAll(
	ctx context.Context,
	records []Record,
) []Health {
	logger.Debugf(ctx, "CheckAll(ctx, %d records)", len(records))
	defer logger.Debugf(ctx, "/CheckAll(ctx, %d records)", len(records))

	result := make([]Health, len(records))
	var wg sync.WaitGroup
	for idx, record := range records {
		result[idx] = Health{
			Record:   record,
			Endpoint: record.Endpoint(),
		}
		wg.Add(1)
		observability.GoSafe(ctx, func(ctx context.Context) {
			defer wg.Done()
			h := &result[idx]
			h.Reachable, h.Detail = c.CheckEndpoint(ctx, h.Endpoint)
		})
	}
	wg.Wait()
	return result
}
