package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/config"
	"github.com/billmal071/litdl/internal/downloader"
)

// sidCookie carries the host session
const sidCookie = "SID"

// ErrNotAuthenticated is returned when no valid session could be established
var ErrNotAuthenticated = errors.New("not authenticated")

// Cookie is the persisted form of a browser cookie
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Session holds the cookies and HTTP clients shared by every host request
type Session struct {
	baseURL    string
	apiURL     string
	cookieFile string
	userAgent  string

	jar     *cookiejar.Jar
	cookies []Cookie
	api     *resty.Client
	log     *zap.SugaredLogger
}

// NewSession creates a session. Cookies are not loaded until Authenticate
// or LoadCookies is called.
func NewSession(hostCfg config.HostConfig, netCfg config.NetworkConfig, log *zap.SugaredLogger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		baseURL:    strings.TrimRight(hostCfg.BaseURL, "/"),
		apiURL:     strings.TrimRight(hostCfg.APIURL, "/"),
		cookieFile: hostCfg.CookieFile,
		userAgent:  netCfg.UserAgent,
		jar:        jar,
		log:        log,
	}

	retries := netCfg.RetryAttempts - 1
	if retries < 0 {
		retries = 0
	}
	fallbackWait := netCfg.RateLimitWait
	if fallbackWait <= 0 {
		fallbackWait = 15 * time.Second
	}

	s.api = resty.New().
		SetCookieJar(jar).
		SetTimeout(netCfg.Timeout).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", netCfg.UserAgent).
		SetHeader("Referer", s.baseURL+"/").
		SetLogger(restyLogger{log}).
		SetRetryCount(retries).
		SetRetryWaitTime(netCfg.Delay).
		SetRetryAfter(func(c *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
					if t, err := http.ParseTime(retryAfter); err == nil {
						return time.Until(t), nil
					}
				}
				return fallbackWait, nil
			}
			return netCfg.Delay, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})

	return s, nil
}

// BaseURL returns the content host root
func (s *Session) BaseURL() string { return s.baseURL }

// Jar returns the cookie jar shared with every client of this session
func (s *Session) Jar() http.CookieJar { return s.jar }

// R starts an API request carrying the session headers
func (s *Session) R(ctx context.Context) *resty.Request {
	req := s.api.R().SetContext(ctx)
	if sid := s.SID(); sid != "" {
		req.SetHeader("Session-Id", sid)
	}
	return req
}

// Header returns the extra headers every host request needs
func (s *Session) Header() http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Referer", s.baseURL+"/")
	if sid := s.SID(); sid != "" {
		h.Set("Session-Id", sid)
	}
	return h
}

// HTTPClient returns a plain client sharing the session cookies. The timeout
// bounds connecting and waiting for response headers only; body reads are
// bounded by the fetch client.
func (s *Session) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Jar: s.jar, Transport: downloader.NewTransport(timeout)}
}

// SID returns the session cookie value, if any
func (s *Session) SID() string {
	for _, c := range s.cookies {
		if c.Name == sidCookie {
			return c.Value
		}
	}
	return ""
}

// SetCookies installs cookies into the jar
func (s *Session) SetCookies(cookies []Cookie) error {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return err
	}

	for _, c := range cookies {
		u := base
		domain := strings.TrimPrefix(c.Domain, ".")
		if domain != "" && domain != base.Hostname() {
			u = &url.URL{Scheme: base.Scheme, Host: domain}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		hc := &http.Cookie{Name: c.Name, Value: c.Value, Path: path}
		if c.Domain != "" && domain != base.Hostname() {
			hc.Domain = c.Domain
		}
		s.jar.SetCookies(u, []*http.Cookie{hc})
	}

	s.cookies = append(s.cookies[:0:0], cookies...)
	return nil
}

// LoadCookies reads the cookie file. A missing file is not an error.
func (s *Session) LoadCookies() error {
	data, err := os.ReadFile(s.cookieFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warnw("Cookie file not found", "path", s.cookieFile)
			return nil
		}
		return err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("failed to parse cookie file %s: %w", s.cookieFile, err)
	}
	if err := s.SetCookies(cookies); err != nil {
		return err
	}
	s.log.Infow("Loaded cookies", "count", len(cookies), "path", s.cookieFile)
	return nil
}

// SaveCookies persists the session cookie only
func (s *Session) SaveCookies(cookies []Cookie) error {
	var keep []Cookie
	for _, c := range cookies {
		if c.Name == sidCookie {
			keep = append(keep, c)
			break
		}
	}
	if len(keep) == 0 {
		return fmt.Errorf("%w: no %s cookie to save", ErrNotAuthenticated, sidCookie)
	}

	if err := os.MkdirAll(filepath.Dir(s.cookieFile), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(keep, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.cookieFile, data, 0600); err != nil {
		return err
	}
	s.log.Infow("Session cookie saved", "path", s.cookieFile)
	return nil
}

// CheckAuth asks the API whether the current session is logged in
func (s *Session) CheckAuth(ctx context.Context) (bool, error) {
	if s.SID() == "" {
		return false, nil
	}

	resp, err := s.R(ctx).Get(s.apiURL + "/foundation/api/users/me")
	if err != nil {
		return false, err
	}
	if resp.StatusCode() != http.StatusOK {
		s.log.Warnw("Auth check failed", "status", resp.StatusCode())
		return false, nil
	}
	return true, nil
}

// LoginFunc obtains fresh cookies interactively
type LoginFunc func(ctx context.Context, loginURL string) ([]Cookie, error)

// Authenticate loads saved cookies and verifies them. When they are not
// valid and login is non-nil, it runs login, saves the new session cookie
// and checks again.
func (s *Session) Authenticate(ctx context.Context, login LoginFunc) error {
	if err := s.LoadCookies(); err != nil {
		s.log.Errorw("Failed to load cookies", "error", err)
	}

	ok, err := s.CheckAuth(ctx)
	if err != nil {
		s.log.Errorw("Auth check error", "error", err)
	}
	if ok {
		s.log.Info("Authenticated with existing session")
		return nil
	}
	if login == nil {
		return ErrNotAuthenticated
	}

	s.log.Info("Existing session is not valid, starting browser login")
	cookies, err := login(ctx, s.baseURL+"/pages/login/")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if err := s.SaveCookies(cookies); err != nil {
		return err
	}
	if err := s.LoadCookies(); err != nil {
		return err
	}

	if ok, err = s.CheckAuth(ctx); err != nil || !ok {
		return fmt.Errorf("%w after browser login", ErrNotAuthenticated)
	}
	s.log.Info("Browser login successful")
	return nil
}

// restyLogger routes resty's messages into zap at debug level
type restyLogger struct {
	log *zap.SugaredLogger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Debugf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Debugf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debugf(format, v...) }
