package host

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// silentLogger discards all log output
var silentLogger = log.New(io.Discard, "", 0)

// loginTimeout is how long the user has to finish logging in
const loginTimeout = 5 * time.Minute

// BrowserLogin opens a visible browser at loginURL, waits until the user has
// left the login page and returns the browser's cookies
func BrowserLogin(ctx context.Context, loginURL string) ([]Cookie, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("start-maximized", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(silentLogger.Printf),
		chromedp.WithErrorf(silentLogger.Printf),
	)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, loginTimeout)
	defer timeoutCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return nil, fmt.Errorf("browser login failed: %w", err)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		var location string
		if err := chromedp.Run(browserCtx, chromedp.Location(&location)); err != nil {
			return nil, fmt.Errorf("browser login failed: %w", err)
		}
		if !strings.Contains(strings.ToLower(location), "login") {
			break
		}
		select {
		case <-browserCtx.Done():
			return nil, fmt.Errorf("browser login timed out: %w", browserCtx.Err())
		case <-ticker.C:
		}
	}

	var raw []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	return convertCookies(raw), nil
}

func convertCookies(raw []*network.Cookie) []Cookie {
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return cookies
}
