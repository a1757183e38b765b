package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/telemetry"
)

var (
	// ErrUpstreamUnavailable covers every non-success HTTP outcome from
	// Azure AD or the Power BI API. The upstream detail is logged, never
	// returned.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotAuthorized is returned when the caller's role cannot be
	// scoped onto the report.
	ErrNotAuthorized = errors.New("not authorized for report")

	// ErrMalformedResponse is returned when an upstream response parses
	// but lacks the fields the exchange depends on.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

const (
	// maxAttempts bounds retries for transient upstream failures.
	maxAttempts = 3

	// retryBaseDelay is the first backoff step; it doubles per attempt.
	retryBaseDelay = 250 * time.Millisecond

	// metadataTTL bounds how long cached report metadata is trusted.
	// Embed URLs and dataset bindings change rarely; five minutes keeps
	// a stale rebind window acceptably small.
	metadataTTL = 5 * time.Minute

	// maxErrorBody caps how much of an upstream error body gets logged.
	maxErrorBody = 2048
)

// EmbedInfo is the short-lived embed session handed to the frontend.
// It is never persisted; callers re-request after expiry.
type EmbedInfo struct {
	AccessToken string    `json:"accessToken"`
	EmbedURL    string    `json:"embedUrl"`
	Expiry      time.Time `json:"expiry"`
	DatasetID   string    `json:"datasetId"`
}

// reportMetadata is the subset of the report descriptor the exchange needs.
type reportMetadata struct {
	EmbedURL  string `json:"embedUrl"`
	DatasetID string `json:"datasetId"`
}

// Client brokers role-scoped embed tokens from the Power BI API.
//
// The client authenticates as its own Azure AD service principal via the
// client-credential grant. The resulting app token is cached by the token
// source and reused across requests until near expiry; report metadata is
// cached separately with a short TTL. Neither cache holds anything
// user-specific; per-user scoping happens only in the GenerateToken call.
type Client struct {
	cfg        *config.PowerBIConfig
	httpClient *http.Client
	tokens     oauth2.TokenSource
	metadata   *expirable.LRU[string, reportMetadata]
}

// NewClient constructs a broker client from validated configuration.
func NewClient(cfg *config.PowerBIConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimSuffix(cfg.AuthorityURL, "/") + "/" + cfg.TenantID + "/oauth2/v2.0/token",
		Scopes:       []string{cfg.Scope},
	}

	// The token source caches the app token and refreshes it shortly
	// before expiry; the exchange itself uses our bounded-timeout client.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     cc.TokenSource(tokenCtx),
		metadata:   expirable.NewLRU[string, reportMetadata](8, nil, metadataTTL),
	}
}

// GetEmbedInfo performs the two-hop exchange for the given caller:
// app token, report metadata, then a role-scoped embed token. The caller's
// role is mapped onto the dataset's RLS roles before anything is requested.
func (c *Client) GetEmbedInfo(ctx context.Context, identity auth.Identity) (*EmbedInfo, error) {
	ctx, span := telemetry.StartSpan(ctx, "embedapi/powerbi", "powerbi.GetEmbedInfo",
		attribute.String(telemetry.AttrAuthSubject, identity.Subject),
		attribute.String(telemetry.AttrWorkspaceID, c.cfg.WorkspaceID),
		attribute.String(telemetry.AttrReportID, c.cfg.ReportID),
	)
	defer span.End()

	rlsRole, err := MapRole(identity.Role)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrRLSRole, rlsRole))

	appToken, err := c.tokens.Token()
	if err != nil {
		log.Printf("powerbi: client credential exchange failed: %v", err)
		telemetry.RecordError(span, err)
		return nil, ErrUpstreamUnavailable
	}

	meta, err := c.reportMetadata(ctx, appToken.AccessToken)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrDatasetID, meta.DatasetID))

	embed, err := c.generateEmbedToken(ctx, appToken.AccessToken, meta, identity.Email, rlsRole)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &EmbedInfo{
		AccessToken: embed.Token,
		EmbedURL:    meta.EmbedURL,
		Expiry:      embed.Expiration,
		DatasetID:   meta.DatasetID,
	}, nil
}

// reportMetadata fetches (or returns cached) embed URL and dataset id for
// the configured workspace/report pair.
func (c *Client) reportMetadata(ctx context.Context, appToken string) (reportMetadata, error) {
	cacheKey := c.cfg.WorkspaceID + "/" + c.cfg.ReportID
	if meta, ok := c.metadata.Get(cacheKey); ok {
		return meta, nil
	}

	url := fmt.Sprintf("%sv1.0/myorg/groups/%s/reports/%s",
		c.apiBase(), c.cfg.WorkspaceID, c.cfg.ReportID)

	body, err := c.doJSON(ctx, http.MethodGet, url, appToken, nil)
	if err != nil {
		return reportMetadata{}, err
	}

	var meta reportMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		log.Printf("powerbi: undecodable report metadata: %v", err)
		return reportMetadata{}, ErrMalformedResponse
	}
	if meta.EmbedURL == "" || meta.DatasetID == "" {
		log.Printf("powerbi: report metadata missing embedUrl or datasetId")
		return reportMetadata{}, ErrMalformedResponse
	}

	c.metadata.Add(cacheKey, meta)
	return meta, nil
}

// generateTokenRequest is the GenerateToken payload: the report and dataset
// being embedded plus the effective identity Power BI applies RLS under.
type generateTokenRequest struct {
	Reports    []reportRef     `json:"reports"`
	Datasets   []datasetRef    `json:"datasets"`
	Identities []embedIdentity `json:"identities"`
}

type reportRef struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
}

type datasetRef struct {
	ID string `json:"id"`
}

type embedIdentity struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Datasets []string `json:"datasets"`
}

type embedTokenResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

func (c *Client) generateEmbedToken(ctx context.Context, appToken string, meta reportMetadata, email, rlsRole string) (embedTokenResponse, error) {
	payload := generateTokenRequest{
		Reports:  []reportRef{{ID: c.cfg.ReportID, GroupID: c.cfg.WorkspaceID}},
		Datasets: []datasetRef{{ID: meta.DatasetID}},
		Identities: []embedIdentity{{
			Username: email,
			Roles:    []string{rlsRole},
			Datasets: []string{meta.DatasetID},
		}},
	}

	url := c.apiBase() + "v1.0/myorg/GenerateToken"
	body, err := c.doJSON(ctx, http.MethodPost, url, appToken, payload)
	if err != nil {
		return embedTokenResponse{}, err
	}

	var resp embedTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("powerbi: undecodable embed token response: %v", err)
		return embedTokenResponse{}, ErrMalformedResponse
	}
	if resp.Token == "" {
		log.Printf("powerbi: embed token response missing token field")
		return embedTokenResponse{}, ErrMalformedResponse
	}

	return resp, nil
}

// doJSON performs a bearer-authenticated request with bounded retries and
// returns the response body. Transport errors and 5xx responses are retried
// with doubling backoff; 4xx responses are not, since the request will not
// get better by asking again.
func (c *Client) doJSON(ctx context.Context, method, url, appToken string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.doOnce(ctx, method, url, appToken, reqBody)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		log.Printf("powerbi: %s %s attempt %d/%d failed: %v", method, url, attempt+1, maxAttempts, err)
	}

	if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, lastErr
	}
	log.Printf("powerbi: %s %s failed: %v", method, url, lastErr)
	return nil, ErrUpstreamUnavailable
}

// doOnce performs a single round-trip. The bool reports whether the failure
// is worth retrying.
func (c *Client) doOnce(ctx context.Context, method, url, appToken string, reqBody []byte) ([]byte, bool, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appToken)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		return nil, resp.StatusCode >= 500, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	return body, false, nil
}

func (c *Client) apiBase() string {
	base := c.cfg.APIBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
