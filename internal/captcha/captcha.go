// Package captcha verifies interactive challenge responses against a
// Turnstile-style siteverify endpoint. The outbound call runs behind the
// captcha circuit breaker so a flapping verification service degrades to
// fast rejections instead of hung requests.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bastion/internal/platform/config"
	"bastion/internal/platform/metrics"
	dErrors "bastion/pkg/domain-errors"
	"bastion/pkg/platform/circuit"
)

// BreakerName is the registry key for the captcha dependency.
const BreakerName = "captcha"

const defaultTimeout = 5 * time.Second

// Verifier checks captcha response tokens.
type Verifier struct {
	client   *http.Client
	breakers *circuit.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics

	secret    string
	verifyURL string
}

type Option func(*Verifier)

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) { v.client = client }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *Verifier) { v.logger = log }
}

// WithMetrics wires the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// New creates a verifier. The breaker registry is required so the outbound
// call shares breaker state with the rest of the process.
func New(cfg config.CaptchaConfig, breakers *circuit.Registry, opts ...Option) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("captcha secret is required")
	}
	if cfg.VerifyURL == "" {
		return nil, fmt.Errorf("captcha verify url is required")
	}
	if breakers == nil {
		return nil, fmt.Errorf("breaker registry is required")
	}
	v := &Verifier{
		client:    &http.Client{Timeout: defaultTimeout},
		breakers:  breakers,
		logger:    slog.Default(),
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks one captcha response token for the given client IP. A
// failed verification is CodeForbidden; an open breaker or unreachable
// service is CodeCircuitOpen or CodeUnavailable so callers can distinguish
// "you failed the captcha" from "we could not check it".
func (v *Verifier) Verify(ctx context.Context, responseToken, remoteIP string) error {
	if responseToken == "" {
		v.countFailure()
		return dErrors.New(dErrors.CodeForbidden, "captcha response is required")
	}

	var result siteverifyResponse
	err := v.breakers.Execute(BreakerName, func() error {
		var callErr error
		result, callErr = v.siteverify(ctx, responseToken, remoteIP)
		return callErr
	})
	if errors.Is(err, circuit.ErrOpen) {
		return dErrors.New(dErrors.CodeCircuitOpen, "captcha verification is temporarily unavailable")
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "captcha verification failed", err)
	}

	if !result.Success {
		v.countFailure()
		v.logger.InfoContext(ctx, "captcha rejected", "error_codes", result.ErrorCodes)
		return dErrors.New(dErrors.CodeForbidden, "captcha verification rejected")
	}
	if v.metrics != nil {
		v.metrics.CaptchaSuccess.Inc()
	}
	return nil
}

func (v *Verifier) siteverify(ctx context.Context, responseToken, remoteIP string) (siteverifyResponse, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", responseToken)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return siteverifyResponse{}, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return siteverifyResponse{}, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return siteverifyResponse{}, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return siteverifyResponse{}, fmt.Errorf("decode siteverify response: %w", err)
	}
	return result, nil
}

func (v *Verifier) countFailure() {
	if v.metrics != nil {
		v.metrics.CaptchaFailure.Inc()
	}
}
