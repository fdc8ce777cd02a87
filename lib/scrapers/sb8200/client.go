package sb8200

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"sbmodem-exporter/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/sb8200")

type Page string

const (
	PageConnectionStatus Page = "/cmconnectionstatus.html"
	PageProductInfo      Page = "/cmswinfo.html"
)

// Target is the label value used for per-page meta metrics.
func (p Page) Target() string {
	switch p {
	case PageConnectionStatus:
		return "connection_status"
	case PageProductInfo:
		return "product_info"
	}
	return string(p)
}

// Unlikely that the modem cares but it's easy enough to pretend to be a
// browser just in case.
var requestHeaders = map[string]string{
	"User-Agent":       "Mozilla/5.0 (X11; Linux x86_64; rv:123.4) Gecko/20100101 Firefox/123.4",
	"Accept":           "*/*",
	"Accept-Language":  "en-US,en;q=0.5",
	"X-Requested-With": "XMLHttpRequest",
	"Pragma":           "no-cache",
	"Cache-Control":    "no-cache",
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// Timeout bounds every single request to the modem. The connection
	// status page alone takes ~10s to come back, so anything below that
	// will never succeed. Defaults to 30s.
	Timeout time.Duration
}

// Client owns the session with the modem: the Basic token, the CSRF
// token and the cookie jar. It is not safe for concurrent use; the
// refresh daemon is its only caller, which also guarantees at most one
// login dance is in flight against the modem at any time.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client

	// base64(user:pass), sent both as the Authorization header and as a
	// bare query marker. The modem wants it in both places.
	authToken string

	csrfToken     string
	establishedAt time.Time
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Username == "" || opts.Password == "" {
		return nil, fmt.Errorf("modem credentials are required")
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeaders(requestHeaders)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)
	// The modem's web server speaks ancient TLS with a self-signed cert
	// and exactly one cipher it likes.
	client.SetTLSClientConfig(&tls.Config{
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS10,
		CipherSuites:       []uint16{tls.TLS_RSA_WITH_AES_128_GCM_SHA256},
	})

	telemetry.InstrumentResty(client, "scrapers/sb8200/http")

	return &Client{
		baseUrl:   baseUrl,
		http:      client,
		authToken: base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password)),
	}, nil
}

// FetchPage returns the authenticated HTML for page. When no session is
// held it runs the full two-step login first; when the modem silently
// drops the session mid-flight it re-runs the login exactly once and
// retries the fetch before giving up.
func (c *Client) FetchPage(ctx context.Context, page Page) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("page", page.Target()))

	if c.csrfToken == "" {
		if err := c.login(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "login failed")
			return "", err
		}
	}

	html, err := c.fetch(ctx, page)
	if errors.Is(err, ErrSessionInvalid) {
		// There is no documented session TTL; a login-page body on an
		// authenticated fetch is the only invalidation signal there is.
		slog.WarnContext(ctx, "session invalidated, logging in again", "page", page.Target())
		c.invalidate()
		if err := c.login(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "re-login failed")
			return "", err
		}
		html, err = c.fetch(ctx, page)
		if errors.Is(err, ErrSessionInvalid) {
			c.invalidate()
			err = fmt.Errorf("%w: still unauthenticated after a fresh login", ErrAuthFailed)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return "", err
	}
	return html, nil
}

// login performs the two-step exchange: Basic credentials are redeemed
// for a session cookie, and the response body of that same request is
// the CSRF token required on every subsequent page fetch.
func (c *Client) login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	// The modem mints a fresh session per login; stale cookies confuse it.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.http.SetCookieJar(jar)
	c.csrfToken = ""
	c.establishedAt = time.Time{}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Basic "+c.authToken).
		Get(string(PageConnectionStatus) + "?login_" + c.authToken)
	if err != nil {
		span.SetStatus(codes.Error, "login request failed")
		return fmt.Errorf("login: %w", err)
	}

	switch {
	case res.StatusCode() == 401 || res.StatusCode() == 403:
		// Seen with bad credentials, but also transiently right after a
		// modem reboot. The caller retries on its normal cadence either way.
		return fmt.Errorf("%w: login status %d", ErrAuthFailed, res.StatusCode())
	case res.StatusCode() != 200:
		return fmt.Errorf("%w: login status %d", ErrUnexpectedContent, res.StatusCode())
	}

	// A failed login comes back as HTTP 200 with the login page where
	// the token should be, so detection has to be content based.
	body := strings.TrimSpace(res.String())
	if body == "" || strings.Contains(body, "<") {
		return fmt.Errorf("%w: login answered with a page instead of a token", ErrAuthFailed)
	}

	c.csrfToken = body
	c.establishedAt = time.Now()
	slog.DebugContext(ctx, "login ok", "cookies", len(jar.Cookies(c.baseUrl)))
	return nil
}

func (c *Client) fetch(ctx context.Context, page Page) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Basic "+c.authToken).
		Get(string(page) + "?ct_" + c.csrfToken)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", page.Target(), err)
	}
	if res.StatusCode() == 401 || res.StatusCode() == 403 {
		return "", fmt.Errorf("%w: fetch %s status %d", ErrSessionInvalid, page.Target(), res.StatusCode())
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("%w: fetch %s status %d", ErrUnexpectedContent, page.Target(), res.StatusCode())
	}

	html := res.String()
	if IsLoginPage(html) {
		return "", fmt.Errorf("%w: got the login page for %s", ErrSessionInvalid, page.Target())
	}
	return html, nil
}

// invalidate drops the CSRF token and the session cookie together; one
// is useless without the other.
func (c *Client) invalidate() {
	c.csrfToken = ""
	c.establishedAt = time.Time{}
	if jar, err := cookiejar.New(nil); err == nil {
		c.http.SetCookieJar(jar)
	}
}
