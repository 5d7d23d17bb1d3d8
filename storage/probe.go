package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// headProbe is the shared reachability check: a HEAD request against the
// provider's base address. Only a 2xx final status counts as available;
// the client follows redirects before we see the status.
func headProbe(ctx context.Context, client *http.Client, url string, log *slog.Logger, provider string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Debug("Failed to create probe request",
			slog.String("provider", provider), "err", err)
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Debug("Provider unavailable",
			slog.String("provider", provider), "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Debug("Provider unavailable",
			slog.String("provider", provider),
			slog.String("status", resp.Status))
		return false
	}
	return true
}
