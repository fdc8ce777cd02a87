package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FakeModem is an httptest stand-in for an SB8200's web UI. It speaks
// the modem's token exchange: a request with a login_<credential> query
// answers with a CSRF token and a session cookie, and a request with a
// ct_<token> query answers with the page body as long as the token and
// cookie belong to the current session. Anything else gets the login
// page with status 200, which is also what the real device does.
type FakeModem struct {
	Server *httptest.Server

	mu            sync.Mutex
	session       int
	refuseLogin   bool
	rejectLogin   bool
	invalidateN   int
	delay         time.Duration
	loginCount    atomic.Int64
	fetchCount    atomic.Int64
	inflight      atomic.Int64
	maxConcurrent atomic.Int64

	// Pages maps request paths to response bodies. Defaults to the
	// canned connection status and product info pages.
	Pages map[string]string
}

func NewFakeModem() *FakeModem {
	m := &FakeModem{
		Pages: map[string]string{
			"/cmconnectionstatus.html": ConnectionStatusHTML,
			"/cmswinfo.html":           ProductInfoHTML,
		},
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *FakeModem) Close() { m.Server.Close() }

func (m *FakeModem) URL() string { return m.Server.URL }

// LoginCount reports how many token exchanges have been attempted.
func (m *FakeModem) LoginCount() int { return int(m.loginCount.Load()) }

// FetchCount reports how many authenticated page fetches have been served.
func (m *FakeModem) FetchCount() int { return int(m.fetchCount.Load()) }

// MaxConcurrent reports the highest number of requests that were ever
// in flight at the same time.
func (m *FakeModem) MaxConcurrent() int { return int(m.maxConcurrent.Load()) }

// SetRefuseLogin makes the modem answer login attempts with the login
// page and status 200, the way the real device reports bad credentials.
func (m *FakeModem) SetRefuseLogin(refuse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refuseLogin = refuse
}

// SetRejectLogin makes the modem answer login attempts with 401.
func (m *FakeModem) SetRejectLogin(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectLogin = reject
}

// InvalidateNextFetches drops the current session before each of the
// next n authenticated fetches, forcing the client to log in again.
func (m *FakeModem) InvalidateNextFetches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateN = n
}

// SetDelay adds a fixed delay to every response.
func (m *FakeModem) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *FakeModem) token() string {
	return fmt.Sprintf("tok-%d", m.session)
}

func (m *FakeModem) cookie() string {
	return fmt.Sprintf("sess-%d", m.session)
}

func (m *FakeModem) handle(w http.ResponseWriter, r *http.Request) {
	cur := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		max := m.maxConcurrent.Load()
		if cur <= max || m.maxConcurrent.CompareAndSwap(max, cur) {
			break
		}
	}

	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	query := r.URL.RawQuery
	switch {
	case strings.HasPrefix(query, "login_"):
		m.handleLogin(w, r)
	case strings.HasPrefix(query, "ct_"):
		m.handleFetch(w, r, strings.TrimPrefix(query, "ct_"))
	default:
		m.serveLoginPage(w)
	}
}

func (m *FakeModem) handleLogin(w http.ResponseWriter, r *http.Request) {
	m.loginCount.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejectLogin {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if m.refuseLogin {
		fmt.Fprint(w, LoginPageHTML)
		return
	}
	m.session++
	http.SetCookie(w, &http.Cookie{Name: "sessionId", Value: m.cookie()})
	fmt.Fprint(w, m.token())
}

func (m *FakeModem) handleFetch(w http.ResponseWriter, r *http.Request, token string) {
	m.fetchCount.Add(1)
	m.mu.Lock()
	if m.invalidateN > 0 {
		m.invalidateN--
		m.session++
	}
	valid := m.session > 0 && token == m.token() && m.hasCookie(r)
	body, known := m.Pages[r.URL.Path]
	m.mu.Unlock()

	if !valid || !known {
		m.serveLoginPage(w)
		return
	}
	fmt.Fprint(w, body)
}

func (m *FakeModem) hasCookie(r *http.Request) bool {
	c, err := r.Cookie("sessionId")
	return err == nil && c.Value == m.cookie()
}

func (m *FakeModem) serveLoginPage(w http.ResponseWriter) {
	fmt.Fprint(w, LoginPageHTML)
}
