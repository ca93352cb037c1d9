package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JakeFAU/course-sampler/internal/catalog"
	"github.com/JakeFAU/course-sampler/internal/metrics"
)

const (
	robotsFallbackReason = "TLS handshake timeout"
	allowAllRobots       = "User-agent: *\nAllow: /"
)

// robotsBackoff lists the waits between robots.txt attempts. Its length plus
// one is the attempt budget.
var robotsBackoff = []time.Duration{
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// robotsGuard sits in front of the HTTP transport while robots.txt is
// respected. Only /robots.txt requests are retried; a catalog that keeps
// timing out on its robots file is treated as allow-all for that fetch.
type robotsGuard struct {
	next    http.RoundTripper
	outcome *robotsOutcome
}

func (g *robotsGuard) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("robots guard received nil request")
	}
	if g.outcome == nil || !isRobotsFile(req) {
		resp, err := g.next.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("robots guard roundtrip: %w", err)
		}
		return resp, nil
	}
	return g.outcome.fetchRobots(req, g.next)
}

func isRobotsFile(req *http.Request) bool {
	return req != nil && req.URL != nil && strings.EqualFold(req.URL.Path, "/robots.txt")
}

// robotsOutcome records whether the robots.txt probe had to be faked.
type robotsOutcome struct {
	status catalog.RobotsStatus
	reason string
}

func (o *robotsOutcome) apply(resp *catalog.FetchResponse) {
	if o == nil || resp == nil || o.status == catalog.RobotsStatusUnknown {
		return
	}
	resp.RobotsStatus = o.status
	resp.RobotsReason = o.reason
}

func (o *robotsOutcome) fetchRobots(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := next.RoundTrip(req.Clone(req.Context()))
		if err == nil {
			return resp, nil
		}
		if !isHandshakeTimeout(err) {
			return nil, fmt.Errorf("robots roundtrip: %w", err)
		}
		if attempt >= len(robotsBackoff) {
			o.giveUp(robotsFallbackReason)
			return allowAllResponse(req), nil
		}
		if err := pause(req.Context(), robotsBackoff[attempt]); err != nil {
			return nil, fmt.Errorf("robots backoff: %w", err)
		}
	}
}

func (o *robotsOutcome) giveUp(reason string) {
	if o.status == catalog.RobotsStatusIndeterminate {
		return
	}
	o.status = catalog.RobotsStatusIndeterminate
	o.reason = reason
	metrics.ObserveRobotsFallback()
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func allowAllResponse(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(strings.NewReader(allowAllRobots)),
		ContentLength: int64(len(allowAllRobots)),
		Header:        make(http.Header),
		Request:       req,
	}
}

func isHandshakeTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "tls: handshake timeout")
}
