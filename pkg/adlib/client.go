package adlib

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"adlibscraper/pkg/config"
	errs "adlibscraper/pkg/errors"
	"adlibscraper/pkg/extractor"
	"adlibscraper/pkg/logger"
	"adlibscraper/pkg/ratelimit"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Retry pacing when the config leaves the delays unset. The base delay
// doubles after each 429 or 503 up to the cap.
const (
	defaultRetryBaseDelay = 5 * time.Second
	defaultRetryMaxDelay  = 60 * time.Second
)

// Client talks to the ad library endpoints with browser-shaped headers,
// session cookies, and optional round-robin proxy rotation.
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	cookies        map[string]string
	maxRetries     int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	limiter        ratelimit.Limiter
	logger         logger.Logger
}

// proxyRotator hands out proxies round-robin per request
type proxyRotator struct {
	proxies []*url.URL
	next    uint32
}

func (pr *proxyRotator) proxy(*http.Request) (*url.URL, error) {
	if len(pr.proxies) == 0 {
		return nil, nil
	}
	n := atomic.AddUint32(&pr.next, 1)
	return pr.proxies[int(n-1)%len(pr.proxies)], nil
}

// parseProxies normalizes proxy addresses, defaulting to the http scheme
func parseProxies(addrs []string) []*url.URL {
	var proxies []*url.URL
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !strings.Contains(addr, "://") {
			addr = "http://" + addr
		}
		u, err := url.Parse(addr)
		if err != nil {
			continue
		}
		proxies = append(proxies, u)
	}
	return proxies
}

// NewClient creates an ad library client from the session and retry
// configuration
func NewClient(cfg *config.AdLibraryConfig, retry config.RetryConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	maxRetries := retry.MaxAttempts
	if !retry.Enabled {
		maxRetries = 0
	}
	retryBaseDelay := retry.BaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = defaultRetryBaseDelay
	}
	retryMaxDelay := retry.MaxDelay
	if retryMaxDelay <= 0 {
		retryMaxDelay = defaultRetryMaxDelay
	}

	userAgent := defaultUserAgent
	if cfg != nil && cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}

	transport := http.DefaultTransport
	if cfg != nil && len(cfg.Proxies) > 0 {
		rotator := &proxyRotator{proxies: parseProxies(cfg.Proxies)}
		if len(rotator.proxies) > 0 {
			transport = &http.Transport{Proxy: rotator.proxy}
			log.InfoWithFields("proxy rotation enabled", map[string]interface{}{
				"proxies": len(rotator.proxies),
			})
		}
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		headers: map[string]string{
			"User-Agent":                userAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Referer":                   BaseURL + "/ad-library/",
			"Origin":                    BaseURL,
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "same-origin",
			"Sec-Fetch-User":            "?1",
		},
		cookies:        make(map[string]string),
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		logger:         log,
	}

	if cfg != nil {
		if cfg.LiAt != "" {
			c.cookies["li_at"] = cfg.LiAt
		}
		if cfg.JSessionID != "" {
			c.cookies["JSESSIONID"] = cfg.JSessionID
		}
		if cfg.CSRFToken != "" {
			c.headers["csrf-token"] = cfg.CSRFToken
		}
	}
	c.refreshCSRFToken()

	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetLimiter installs a rate limiter consulted before every request
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	c.limiter = l
}

// SetCookies replaces the session cookies and re-derives the CSRF token
func (c *Client) SetCookies(cookies map[string]string) {
	c.cookies = make(map[string]string, len(cookies))
	for name, value := range cookies {
		c.cookies[name] = value
	}
	c.refreshCSRFToken()
}

// HasSessionCookies reports whether an authenticated session is loaded
func (c *Client) HasSessionCookies() bool {
	return c.cookies["li_at"] != ""
}

// refreshCSRFToken mirrors the JSESSIONID cookie into the csrf-token
// header, which the fragment endpoint validates against.
func (c *Client) refreshCSRFToken() {
	jsession := strings.Trim(c.cookies["JSESSIONID"], `"`)
	if strings.HasPrefix(jsession, "ajax:") {
		c.headers["csrf-token"] = jsession
	}
}

// doRequest performs one HTTP request with configured headers and cookies
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// doRequestWithRetry retries transient failures. Rate limit responses
// back off on a doubling schedule before each attempt.
func (c *Client) doRequestWithRetry(method, rawURL string, body io.Reader) (*http.Response, error) {
	var lastErr error
	delay := c.retryBaseDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WarnWithFields("retrying HTTP request", map[string]interface{}{
				"method":   method,
				"url":      rawURL,
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
				"error":    lastErr.Error(),
			})
			time.Sleep(delay)
			delay *= 2
			if delay > c.retryMaxDelay {
				delay = c.retryMaxDelay
			}
		}

		if c.limiter != nil {
			c.limiter.Wait()
		}

		req, err := http.NewRequest(method, rawURL, body)
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
				Code:    0,
			}
		}

		resp, err := c.doRequest(req)
		if err != nil {
			lastErr = err
			var apiErr *errs.Error
			if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeNetwork {
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			lastErr = &errs.Error{
				Type:    errs.ErrorTypeRateLimit,
				Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
			resp.Body.Close()
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &errs.Error{
				Type:    errs.ErrorTypeServerError,
				Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	c.logger.ErrorWithFields("max retries exceeded", map[string]interface{}{
		"method":      method,
		"url":         rawURL,
		"max_retries": c.maxRetries,
		"last_error":  lastErr.Error(),
	})

	return nil, lastErr
}

// GetHTML fetches a URL and returns the response body as a string
func (c *Client) GetHTML(rawURL string) (string, error) {
	resp, err := c.doRequestWithRetry(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return string(body), nil
}

// FetchFragment fetches one listing page by continuation token. The
// endpoint returns either a JSON envelope with html and paginationToken
// fields or a bare HTML fragment; both shapes normalize to a Page.
func (c *Client) FetchFragment(advertiser, token string) (*Page, error) {
	rawURL := GetFragmentURL(advertiser, token)

	resp, err := c.doRequestWithRetry(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	var page Page
	if err := json.Unmarshal(body, &page); err == nil && (page.HTML != "" || page.Token != "") {
		return &page, nil
	}

	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		html := string(body)
		return &Page{HTML: html, Token: extractor.NextToken(html)}, nil
	}

	return nil, &errs.Error{
		Type:    errs.ErrorTypeParsing,
		Message: "fragment response is neither JSON envelope nor HTML",
		Code:    resp.StatusCode,
	}
}

// FetchOffsetPage fetches one listing page by result offset. The offset
// endpoint never returns a token natively, so the next token is
// re-derived from the page body.
func (c *Client) FetchOffsetPage(advertiser string, offset int) (*Page, error) {
	html, err := c.GetHTML(GetSearchURL(advertiser, offset))
	if err != nil {
		return nil, err
	}
	return &Page{HTML: html, Token: extractor.NextToken(html)}, nil
}

// FetchDetail fetches the detail page body for an ad ID
func (c *Client) FetchDetail(adID string) (string, error) {
	return c.GetHTML(GetDetailURL(adID))
}

// Head performs a pre-flight existence check before a large download
func (c *Client) Head(rawURL string) error {
	resp, err := c.doRequestWithRetry(http.MethodHead, rawURL, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return c.checkResponseStatus(resp)
}

// DownloadAsset fetches a media asset and returns its bytes and the
// reported content type
func (c *Client) DownloadAsset(rawURL string) ([]byte, string, error) {
	resp, err := c.doRequestWithRetry(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download asset: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// checkResponseStatus maps HTTP statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			return &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}
