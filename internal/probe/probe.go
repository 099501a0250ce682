// Package probe issues single HTTP GET probes against monitored websites and
// classifies the outcome.
package probe

import (
	"io"
	"net/http"
	"strings"
	"time"

	"sitewatch/internal/logging"
)

// Timeout bounds one probe attempt end to end. It is the only cancellation
// mechanism: incoming request cancellation is not propagated into a probe.
const Timeout = 15 * time.Second

// maxErrorLen caps the stored failure description.
const maxErrorLen = 500

// Outcome is the result of one probe attempt. StatusCode and ResponseTimeMS
// are nil when the attempt failed before they could be captured; Error is nil
// on success. Error and StatusCode are mutually exclusive: a failure while
// reading the body discards any status code already received.
type Outcome struct {
	StatusCode     *int
	IsUp           bool
	ResponseTimeMS *int
	KeywordMatches []string
	Error          *string
}

// Prober executes probes with a shared HTTP client. Safe for concurrent use.
type Prober struct {
	client *http.Client
	logger logging.Logger
}

// New creates a Prober. When httpClient is nil a default client with the
// fixed probe timeout is used.
func New(logger logging.Logger, httpClient *http.Client) *Prober {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: Timeout}
	}
	return &Prober{
		client: httpClient,
		logger: logger.With(logging.Field{Key: "component", Value: "prober"}),
	}
}

// Run performs exactly one GET against url and scans the response body for
// the given keywords. All failures are converted into the outcome's Error
// field; Run never returns an error to the caller.
func (p *Prober) Run(url string, keywords []string) Outcome {
	var out Outcome

	start := time.Now()
	resp, err := p.client.Get(url)
	if err != nil {
		return p.fail(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Collapse a mid-body failure into a total failure: no status
		// code or timing is kept.
		return p.fail(url, err)
	}

	elapsed := int(time.Since(start).Milliseconds())
	status := resp.StatusCode

	out.StatusCode = &status
	out.ResponseTimeMS = &elapsed
	out.IsUp = status >= 200 && status < 400
	out.KeywordMatches = matchKeywords(keywords, body)

	p.logger.Debug("probe finished",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "status_code", Value: status},
		logging.Field{Key: "response_time_ms", Value: elapsed},
		logging.Field{Key: "is_up", Value: out.IsUp})

	return out
}

func (p *Prober) fail(url string, err error) Outcome {
	msg := truncateError(err.Error())
	p.logger.Warn("probe failed",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "error", Value: msg})
	return Outcome{
		IsUp:           false,
		KeywordMatches: []string{},
		Error:          &msg,
	}
}

// matchKeywords returns the keywords found as case-insensitive substrings of
// body, preserving input order and duplicates. Empty keywords never match.
func matchKeywords(keywords []string, body []byte) []string {
	matches := []string{}
	if len(keywords) == 0 {
		return matches
	}
	content := strings.ToLower(string(body))
	for _, kw := range keywords {
		if kw != "" && strings.Contains(content, strings.ToLower(kw)) {
			matches = append(matches, kw)
		}
	}
	return matches
}

func truncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) > maxErrorLen {
		return string(runes[:maxErrorLen])
	}
	return msg
}
