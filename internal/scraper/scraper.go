package scraper

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bizdir/admin-server/internal/config"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/util"
)

const userAgent = "bizdir-meta-importer/1.0"

// Result is the metadata scraped from one URL, or the reason it failed.
type Result struct {
	URL         string  `json:"url"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Favicon     *string `json:"favicon,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type OutcomeRecorder interface {
	RecordScrape(success bool)
}

type Scraper struct {
	client      *http.Client
	maxURLs     int
	concurrency int
	maxBody     int64
	policy      *bluemonday.Policy
	recorder    OutcomeRecorder
}

// NewSafeClient returns an HTTP client that refuses private, loopback and
// link-local destinations after DNS resolution.
func NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(cfg).Client
}

func New(client *http.Client, recorder OutcomeRecorder) *Scraper {
	return &Scraper{
		client:      client,
		maxURLs:     config.ScraperMaxURLs,
		concurrency: config.ScraperConcurrency,
		maxBody:     config.ScraperMaxBodySize,
		policy:      bluemonday.StrictPolicy(),
		recorder:    recorder,
	}
}

// Validate rejects empty or oversized batches and non-http(s) URLs.
func (s *Scraper) Validate(urls []string) error {
	if len(urls) == 0 {
		return apperrors.InvalidInput("urls", "must be a non-empty array")
	}
	if len(urls) > s.maxURLs {
		return apperrors.InvalidInput("urls", fmt.Sprintf("must contain at most %d entries", s.maxURLs))
	}

	var fields []apperrors.FieldError
	for i, u := range urls {
		if !util.IsHTTPURL(u) {
			fields = append(fields, apperrors.FieldError{
				Field:   fmt.Sprintf("urls[%d]", i),
				Message: "must be an http or https URL",
			})
		}
	}
	if len(fields) > 0 {
		return apperrors.InvalidFields(fields)
	}
	return nil
}

// ImportMeta fetches every URL concurrently. Per-URL failures land in
// Result.Error and never abort the batch; results keep input order.
func (s *Scraper) ImportMeta(ctx context.Context, urls []string) ([]Result, error) {
	if err := s.Validate(urls); err != nil {
		return nil, err
	}

	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = s.scrape(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (s *Scraper) scrape(ctx context.Context, rawURL string) Result {
	meta, err := s.fetch(ctx, rawURL)
	if s.recorder != nil {
		s.recorder.RecordScrape(err == nil)
	}
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("scrape failed")
		return Result{URL: rawURL, Error: err.Error()}
	}
	meta.URL = rawURL
	return *meta
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return s.extract(string(body), resp.Request.URL), nil
}

func (s *Scraper) extract(doc string, base *url.URL) *Result {
	title := firstNonEmpty(ogTitle.find(doc), metaTitle.find(doc))
	description := firstNonEmpty(ogDescription.find(doc), metaDescription.find(doc))
	image := ogImage.find(doc)
	favicon := resolve(base, linkIcon(doc))

	return &Result{
		Title:       s.clean(title),
		Description: s.clean(description),
		Image:       s.clean(resolve(base, image)),
		Favicon:     s.clean(favicon),
	}
}

func (s *Scraper) clean(v string) *string {
	// Decode first so entity-encoded markup is stripped too. Sanitize re-escapes
	// what it keeps, so undo that last.
	v = html.UnescapeString(s.policy.Sanitize(html.UnescapeString(v)))
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// metaMatcher finds <meta property="name" content="..."> first and falls
// back to <meta name="name" content="...">.
type metaMatcher struct {
	byProperty *regexp.Regexp
	byName     *regexp.Regexp
}

func newMetaMatcher(name string) metaMatcher {
	q := regexp.QuoteMeta(name)
	return metaMatcher{
		byProperty: regexp.MustCompile(`(?i)<meta[^>]+property=["']` + q + `["'][^>]*content=["']([^"']+)["'][^>]*>`),
		byName:     regexp.MustCompile(`(?i)<meta[^>]+name=["']` + q + `["'][^>]*content=["']([^"']+)["'][^>]*>`),
	}
}

func (m metaMatcher) find(doc string) string {
	if match := m.byProperty.FindStringSubmatch(doc); len(match) > 1 {
		return match[1]
	}
	if match := m.byName.FindStringSubmatch(doc); len(match) > 1 {
		return match[1]
	}
	return ""
}

var (
	ogTitle         = newMetaMatcher("og:title")
	metaTitle       = newMetaMatcher("title")
	ogDescription   = newMetaMatcher("og:description")
	metaDescription = newMetaMatcher("description")
	ogImage         = newMetaMatcher("og:image")
	iconLink        = regexp.MustCompile(`(?i)<link[^>]+rel=["']icon["'][^>]*href=["']([^"']+)["'][^>]*>`)
)

func linkIcon(doc string) string {
	if m := iconLink.FindStringSubmatch(doc); len(m) > 1 {
		return m[1]
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
