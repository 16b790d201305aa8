package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker caches robots.txt per host and answers fetch-permission
// questions for the scraping collectors.
type RobotsChecker struct {
	cache     map[string]*robotstxt.RobotsData
	mu        sync.RWMutex
	hc        *http.Client
	userAgent string
}

// NewRobotsChecker creates a checker with its own short-timeout client.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache:     make(map[string]*robotstxt.RobotsData),
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Allowed reports whether the URL may be fetched. An unreachable
// robots.txt allows the fetch.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data, err := r.robotsFor(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true
	}
	return data.TestAgent(parsed.Path, r.userAgent)
}

func (r *RobotsChecker) robotsFor(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[host]
	r.mu.RUnlock()
	if exists {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed *robotstxt.RobotsData
	if resp.StatusCode == http.StatusNotFound {
		parsed, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	} else {
		parsed, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.cache[host] = parsed
	r.mu.Unlock()
	return parsed, nil
}
