package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// WebsiteAudit fetches a page once and reports a few presence checks.
type WebsiteAudit struct {
	HTTP *http.Client
}

func NewWebsiteAudit(timeout time.Duration) *WebsiteAudit {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebsiteAudit{HTTP: &http.Client{Timeout: timeout}}
}

func (a *WebsiteAudit) Name() string { return "website_audit" }

func (a *WebsiteAudit) Description() string {
	return "Audit company websites for digital presence analysis"
}

func (a *WebsiteAudit) Parameters() map[string]any {
	return objectSchema("url", map[string]string{
		"url": "Full website URL starting with http:// or https://",
	})
}

func (a *WebsiteAudit) Call(ctx context.Context, arguments string) string {
	return a.Audit(ctx, stringArg(arguments, "url"))
}

// Audit never returns a Go error; failures are described in the text.
func (a *WebsiteAudit) Audit(ctx context.Context, rawURL string) string {
	if rawURL == "" || !(strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")) {
		return "Error: Invalid URL provided"
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "Error: Invalid URL format"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Website audit error: %v", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	start := time.Now()
	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Sprintf("Website audit failed: Unable to access %s. Error: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Website audit failed: Unable to access %s. Error: %v", rawURL, err)
	}
	elapsed := time.Since(start).Seconds()

	content := strings.ToLower(string(body))
	https := strings.HasPrefix(rawURL, "https://")

	var b strings.Builder
	fmt.Fprintf(&b, `WEBSITE AUDIT RESULTS:
=====================
URL: %s
Status Code: %d
Response Time: %.2f seconds
Content Length: %d bytes
SSL/HTTPS: %s

BASIC SEO ANALYSIS:
==================
- Title tag: %s
- Meta description: %s
- Responsive design: %s

CONTENT INDICATORS:
==================
- Contact information: %s
- About section: %s
- Product information: %s

RECOMMENDATIONS:
===============
- Website is %s
- Response time is %s
- %s`,
		rawURL, resp.StatusCode, elapsed, len(body), pick(https, "Yes", "No"),
		pick(strings.Contains(content, "<title>"), "Found", "Missing"),
		pick(strings.Contains(content, `meta name="description"`), "Found", "Missing"),
		pick(strings.Contains(content, "viewport"), "Likely", "Unknown"),
		pick(containsAny(content, "contact", "email", "phone"), "Found", "Not found"),
		pick(strings.Contains(content, "about"), "Found", "Not found"),
		pick(containsAny(content, "product", "service", "solution"), "Found", "Not found"),
		pick(resp.StatusCode == http.StatusOK, "accessible", "not accessible"),
		pick(elapsed < 3, "good", "needs improvement"),
		pick(https, "SSL is properly configured", "Consider implementing SSL/HTTPS"),
	)
	return b.String()
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
