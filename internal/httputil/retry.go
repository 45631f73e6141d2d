// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the agent's outbound calls.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay is the starting backoff for retryable responses. The
// arXiv API asks clients to pace requests a few seconds apart, so the
// default matches that. Tests override it to avoid real sleeps.
var RetryBaseDelay = 3 * time.Second

const defaultMaxRetries = 5

// retryable reports whether a status code is worth another attempt.
// 429 is rate limiting; 503 is how arXiv signals maintenance windows.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries rate-limit and maintenance
// responses (429, 503) with exponential backoff: RetryBaseDelay doubled
// on each attempt. Any other status, including 5xx errors that are not
// 503, is returned to the caller on the first try.
//
// maxRetries <= 0 selects the default of 5. The response body is drained
// and closed before each retry so connections get reused. A context
// cancelled mid-wait returns ctx.Err(); once retries run out the last
// retryable response is returned for the caller to inspect.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	backoff := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
