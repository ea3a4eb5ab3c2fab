package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultProxy is the CORS relay used when the direct fetch fails.
const DefaultProxy = "https://api.allorigins.win/raw?url="

// ErrHTML means the server answered with a web page, typically a sign-in
// screen for a sheet that was never published.
var ErrHTML = errors.New("received HTML instead of CSV; link might not be published")

// ErrEmptyProxy means the relay answered with an empty body.
var ErrEmptyProxy = errors.New("empty response from proxy")

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// HTTPOptions tunes the URL source. Zero values fall back to defaults.
type HTTPOptions struct {
	Timeout          time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	// ProxyURL is prefixed to the escaped target URL. "-" disables the fallback.
	ProxyURL string
	Client   *http.Client
	Logger   *zap.Logger
	// Now stamps the cache buster; tests pin it.
	Now func() time.Time
}

// HTTP fetches a published CSV export. It appends a cache buster, retries
// 429/5xx responses and transient network errors with exponential backoff,
// rejects HTML pages, and falls back to a relay proxy when the direct fetch fails.
type HTTP struct {
	url              string
	proxy            string
	client           *http.Client
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewHTTP(rawURL string, opts HTTPOptions) *HTTP {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 4 * time.Second
	}
	if opts.ProxyURL == "" {
		opts.ProxyURL = DefaultProxy
	}
	if opts.ProxyURL == "-" {
		opts.ProxyURL = ""
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HTTP{
		url:              rawURL,
		proxy:            opts.ProxyURL,
		client:           opts.Client,
		retryMaxAttempts: opts.RetryMaxAttempts,
		retryBaseDelay:   opts.RetryBaseDelay,
		retryMaxDelay:    opts.RetryMaxDelay,
		logger:           opts.Logger.Named("source"),
		now:              opts.Now,
	}
}

func (h *HTTP) Describe() string { return "Live Google Sheet " + h.url }

func (h *HTTP) Fetch(ctx context.Context) (string, error) {
	target := withCacheBuster(h.url, h.now())
	text, directErr := h.get(ctx, target)
	if directErr == nil && looksLikeHTML(text) {
		directErr = ErrHTML
	}
	if directErr == nil {
		return text, nil
	}
	if h.proxy == "" || ctx.Err() != nil {
		return "", &UnavailableError{Source: h.url, Direct: directErr}
	}
	h.logger.Warn("direct fetch failed, trying proxy", zap.String("url", h.url), zap.Error(directErr))

	text, proxyErr := h.get(ctx, h.proxy+url.QueryEscape(target))
	if proxyErr == nil && strings.TrimSpace(text) == "" {
		proxyErr = ErrEmptyProxy
	}
	if proxyErr != nil {
		return "", &UnavailableError{Source: h.url, Direct: directErr, Proxy: proxyErr}
	}
	h.logger.Info("loaded via proxy", zap.String("url", h.url), zap.Int("bytes", len(text)))
	return text, nil
}

// get performs a GET with retry on 429, 5xx and transient network errors.
func (h *HTTP) get(ctx context.Context, endpoint string) (string, error) {
	backoff := h.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= h.retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
		resp, err := h.client.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < h.retryMaxAttempts {
				lastErr = err
				if err := sleep(ctx, h.capDelay(withJitter(backoff))); err != nil {
					return "", err
				}
				backoff *= 2
				continue
			}
			return "", fmt.Errorf("http request: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &StatusError{StatusCode: resp.StatusCode}
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
					serr.RetryAfter = time.Duration(secs) * time.Second
				}
			}
			lastErr = serr
			retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			if !retryable || attempt == h.retryMaxAttempts {
				return "", serr
			}
			delay := h.capDelay(withJitter(backoff))
			if serr.RetryAfter > 0 {
				delay = h.capDelay(serr.RetryAfter)
			}
			h.logger.Debug("retrying", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
			backoff *= 2
			continue
		}
		if readErr != nil {
			return "", fmt.Errorf("read body: %w", readErr)
		}
		return string(body), nil
	}
	return "", lastErr
}

func (h *HTTP) capDelay(d time.Duration) time.Duration {
	if h.retryMaxDelay > 0 && d > h.retryMaxDelay {
		return h.retryMaxDelay
	}
	return d
}

func withCacheBuster(raw string, now time.Time) string {
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "t=" + strconv.FormatInt(now.UnixMilli(), 10)
}

func looksLikeHTML(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "<!doctype html") ||
		strings.Contains(text, "<html")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	// up to +20%
	return d + time.Duration(rand.Int63n(int64(d)/5+1))
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds accepts delta seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}
