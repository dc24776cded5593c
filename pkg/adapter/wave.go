package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/openaudit/a11yscan/pkg/model"
)

// waveAdapter invokes the remote WAVE HTTP API, wrapping it behind
// viper-configured settings and translating its response into this
// module's own types.
type waveAdapter struct{}

func (a *waveAdapter) Kind() model.ScannerKind { return model.Wave }

func (a *waveAdapter) Scan(ctx context.Context, page model.PageRef, cfg Config) model.RawScanOutput {
	if cfg.Mode == model.ModeSimulate {
		return simulateFixture(model.Wave, page.URL)
	}

	return WithRetry(ctx, cfg, func(ctx context.Context) model.RawScanOutput {
		return a.attempt(ctx, page, cfg)
	})
}

func (a *waveAdapter) attempt(ctx context.Context, page model.PageRef, cfg Config) model.RawScanOutput {
	if cfg.WaveAPIKey == "" {
		return model.FailureOutput(model.FailureConfiguration, "wave: no API key configured")
	}

	ctx, cancel := deadline(ctx, cfg)
	defer cancel()

	endpoint := cfg.WaveBaseURL
	if endpoint == "" {
		endpoint = "https://wave.webaim.org/api/request"
	}
	reqURL := fmt.Sprintf("%s?key=%s&url=%s", endpoint, url.QueryEscape(cfg.WaveAPIKey), url.QueryEscape(page.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.FailureOutput(model.FailureProtocol, err.Error())
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return model.FailureOutput(model.FailureTimeout, "wave: deadline exceeded")
		}
		return model.FailureOutput(model.FailureTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return model.FailureOutput(model.FailureConfiguration, fmt.Sprintf("wave: auth rejected (status %d)", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return model.FailureOutput(model.FailureTransport, fmt.Sprintf("wave: server error (status %d)", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return model.FailureOutput(model.FailureProtocol, fmt.Sprintf("wave: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.FailureOutput(model.FailureTransport, err.Error())
	}

	return model.SuccessOutput(body)
}
