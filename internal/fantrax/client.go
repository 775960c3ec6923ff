package fantrax

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/hatrick/crease/internal/stats"
)

const (
	// DefaultBaseURL for the Fantrax web app
	DefaultBaseURL = "https://www.fantrax.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second
)

// Fantrax renders everything client-side (Angular), so selectors target
// form controls rather than ids.
const (
	loginPath             = "/login"
	loginEmailSelector    = `input[formcontrolname="email"]`
	loginPasswordSelector = `input[formcontrolname="password"]`
	loginSubmitSelector   = `button[type="submit"]`
)

// ClientConfig carries the league identity and credentials for a scraping
// session.
type ClientConfig struct {
	BaseURL  string
	LeagueID string
	Username string
	Password string
}

// Client drives a headless browser session against Fantrax with rate
// limiting. One browser tab is reused across calls so the login cookie
// survives between requests.
type Client struct {
	baseURL  string
	leagueID string
	username string
	password string

	lastRequest time.Time
	interval    time.Duration

	// Chromedp contexts for the headless browser
	allocCtx context.Context
	tabCtx   context.Context
	cancels  []context.CancelFunc

	loggedIn bool
}

// NewClient creates a new Fantrax scraper client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.LeagueID == "" {
		return nil, fmt.Errorf("fantrax: league ID is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	// Create chrome instance with options
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		leagueID: cfg.LeagueID,
		username: cfg.Username,
		password: cfg.Password,
		interval: MinRequestInterval,
		allocCtx: allocCtx,
		tabCtx:   tabCtx,
		cancels:  []context.CancelFunc{cancelTab, cancelAlloc},
	}, nil
}

// Close releases browser resources
func (c *Client) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
}

// Login signs the browser session into Fantrax. Exports of private league
// pages return empty files without it.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("fantrax: username and password are required to log in")
	}

	c.waitForRateLimit()

	runCtx, cancel := c.runContext(ctx, 60*time.Second)
	defer cancel()

	var location string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(c.baseURL+loginPath),
		chromedp.WaitVisible(loginEmailSelector, chromedp.ByQuery),
		chromedp.SendKeys(loginEmailSelector, c.username, chromedp.ByQuery),
		chromedp.SendKeys(loginPasswordSelector, c.password, chromedp.ByQuery),
		chromedp.Click(loginSubmitSelector, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second), // Allow the redirect to settle
		chromedp.Location(&location),
	)
	c.lastRequest = time.Now()

	if err != nil {
		return fmt.Errorf("chromedp error: %w", err)
	}
	if strings.Contains(location, loginPath) {
		return fmt.Errorf("fantrax: still on login page after submit (bad credentials?)")
	}

	c.loggedIn = true
	log.Printf("✓ Logged into Fantrax as %s", c.username)
	return nil
}

// DownloadExport fetches one team's stats CSV for a report type and season.
// The download runs as an in-page fetch so it rides on the session cookie.
func (c *Client) DownloadExport(ctx context.Context, teamID string, report stats.ReportType, season int) (string, error) {
	if !c.loggedIn {
		return "", fmt.Errorf("fantrax: must log in before downloading exports")
	}

	c.waitForRateLimit()

	runCtx, cancel := c.runContext(ctx, 60*time.Second)
	defer cancel()

	script := fmt.Sprintf(
		`fetch(%q, {credentials: "include"}).then(r => { if (!r.ok) { throw new Error("export fetch failed: " + r.status); } return r.text(); })`,
		c.exportURL(teamID, report, season),
	)

	var csvText string
	err := chromedp.Run(runCtx,
		chromedp.Evaluate(script, &csvText, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	c.lastRequest = time.Now()

	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if !strings.Contains(csvText, markerSkaters) {
		return "", fmt.Errorf("export for team %s has no skater section (session expired?)", teamID)
	}

	return csvText, nil
}

// FetchStandingsHTML fetches the rendered league standings page, the source
// for team discovery.
func (c *Client) FetchStandingsHTML(ctx context.Context) (string, error) {
	c.waitForRateLimit()

	runCtx, cancel := c.runContext(ctx, 60*time.Second)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(fmt.Sprintf("%s/league/%s/standings", c.baseURL, c.leagueID)),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second), // Allow Angular to render
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	c.lastRequest = time.Now()

	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return htmlContent, nil
}

// exportURL builds the CSV download endpoint for one (team, report, season)
func (c *Client) exportURL(teamID string, report stats.ReportType, season int) string {
	q := url.Values{}
	q.Set("leagueId", c.leagueID)
	q.Set("teamId", teamID)
	q.Set("period", string(report))
	q.Set("season", fmt.Sprintf("%d-%d", season, season+1))
	return c.baseURL + "/fxpa/downloadTeamRosterStats?" + q.Encode()
}

// runContext derives a tab context bounded by both the caller's context and
// a timeout.
func (c *Client) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancelTimeout := context.WithTimeout(c.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancelTimeout)
	return runCtx, func() {
		stop()
		cancelTimeout()
	}
}

// waitForRateLimit enforces the minimum interval between browser requests
func (c *Client) waitForRateLimit() {
	if !c.lastRequest.IsZero() {
		elapsed := time.Since(c.lastRequest)
		if elapsed < c.interval {
			waitTime := c.interval - elapsed
			log.Printf("Rate limiting: waiting %v before next request", waitTime)
			time.Sleep(waitTime)
		}
	}
}

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
