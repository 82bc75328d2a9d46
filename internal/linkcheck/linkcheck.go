// Package linkcheck validates the Link rows of the Store: internal
// links are resolved relative to their owning document's path on
// disk, external links are probed over HTTP with a per-domain rate
// limiter so a single check-links run never hammers one host.
package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// DefaultTimeout is the per-request timeout for external checks.
const DefaultTimeout = 3 * time.Second

// DefaultMinInterval is the minimum delay between two requests to the
// same host, proactively enforced rather than reacting to response
// headers: arbitrary external hosts don't hand back a rate budget the
// way GitHub's API does.
const DefaultMinInterval = 1 * time.Second

// Result is the outcome of checking one Link.
type Result struct {
	LinkID int64
	Target string
	Status domain.LinkStatus
}

// Report is the outcome of one CheckAll run. RunID is a fresh uuid
// tagging the run so operators can correlate a check-links invocation
// with its log lines and with the checked_at timestamp CheckAll wrote
// to every Link row.
type Report struct {
	RunID   string
	Results []Result
}

// Checker validates links found in the Store, optionally reaching out
// to external hosts.
type Checker struct {
	client      *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New constructs a Checker with the given per-request timeout and
// per-host minimum interval. Zero values fall back to the package
// defaults.
func New(timeout, minInterval time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Checker{
		client:      &http.Client{Timeout: timeout},
		minInterval: minInterval,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// CheckAll validates every link known to docs, updates its status in
// the Store, and returns every result. checkExternal gates whether
// external (http/https) links are actually probed over the network;
// when false they're left unknown rather than marked broken, since
// not checking is not the same as checking and failing.
func (c *Checker) CheckAll(ctx context.Context, docs driven.DocumentStore, checkExternal bool) (Report, error) {
	links, err := docs.Links(ctx)
	if err != nil {
		return Report{}, err
	}

	now := time.Now()
	results := make([]Result, 0, len(links))
	for _, lwp := range links {
		link := lwp.Link

		var status domain.LinkStatus
		switch {
		case !link.IsExternal:
			status = c.checkInternal(lwp.DocumentPath, link.Target)
		case checkExternal:
			status = c.checkExternal(ctx, link.Target)
		default:
			status = domain.LinkStatusUnknown
		}

		if err := docs.UpdateLinkStatus(ctx, link.ID, status, now); err != nil {
			return Report{}, err
		}
		results = append(results, Result{LinkID: link.ID, Target: link.Target, Status: status})
	}
	return Report{RunID: uuid.NewString(), Results: results}, nil
}

// checkInternal resolves target relative to documentPath's directory.
// A bare fragment (#section) or an empty path-portion is always ok:
// fragment existence isn't tracked as a separate index.
func (c *Checker) checkInternal(documentPath, target string) domain.LinkStatus {
	if strings.HasPrefix(target, "#") {
		return domain.LinkStatusOK
	}

	pathPortion := target
	if idx := strings.Index(target, "#"); idx >= 0 {
		pathPortion = target[:idx]
	}
	pathPortion = strings.TrimSpace(pathPortion)
	if pathPortion == "" {
		return domain.LinkStatusOK
	}

	resolved := filepath.Join(filepath.Dir(documentPath), pathPortion)
	if fileExists(resolved) {
		return domain.LinkStatusOK
	}
	return domain.LinkStatusBroken
}

// checkExternal issues HEAD first, retrying with GET if the server
// responds 405 (method not allowed); any other failure, including a
// timeout or a non-2xx/3xx status, is broken.
func (c *Checker) checkExternal(ctx context.Context, target string) domain.LinkStatus {
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.LinkStatusBroken
	}

	if err := c.limiterFor(parsed.Host).Wait(ctx); err != nil {
		return domain.LinkStatusBroken
	}

	status, err := c.do(ctx, http.MethodHead, target)
	if err == nil && status == http.StatusMethodNotAllowed {
		if err := c.limiterFor(parsed.Host).Wait(ctx); err != nil {
			return domain.LinkStatusBroken
		}
		status, err = c.do(ctx, http.MethodGet, target)
	}
	if err != nil {
		return domain.LinkStatusBroken
	}
	if status >= 200 && status < 400 {
		return domain.LinkStatusOK
	}
	return domain.LinkStatusBroken
}

func (c *Checker) do(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// limiterFor returns the per-host token bucket, creating it lazily on
// first use.
func (c *Checker) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(c.minInterval), 1)
		c.limiters[host] = l
	}
	return l
}
