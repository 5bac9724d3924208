package integration

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
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/compass-crm/compass-crm/internal/access"
)

// ErrUpstream indicates the reporting service returned a failure status.
var ErrUpstream = errors.New("integration: reporting upstream error")

// tokenTTL bounds how long a signed reporting token stays valid.
const tokenTTL = 2 * time.Minute

// ReportingClient calls the external reporting service on behalf of a portal
// user. Every request carries the caller's territory scope as both a query
// parameter and a header, and the injected values overwrite anything the
// caller supplied, so a client can never widen its own access.
type ReportingClient struct {
	baseURL string
	secret  []byte
	client  *http.Client
	logger  *slog.Logger
}

// NewReportingClient constructs a ReportingClient.
func NewReportingClient(baseURL, secret string, timeout time.Duration, logger *slog.Logger) *ReportingClient {
	return &ReportingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// LeadStats proxies the lead statistics report scoped to the user.
func (c *ReportingClient) LeadStats(ctx context.Context, u *access.User, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/reports/leads", u, params)
}

// QuotationStats proxies the quotation statistics report scoped to the user.
func (c *ReportingClient) QuotationStats(ctx context.Context, u *access.User, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/reports/quotations", u, params)
}

// CommissionStats proxies the commission statistics report scoped to the user.
func (c *ReportingClient) CommissionStats(ctx context.Context, u *access.User, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, "/reports/commissions", u, params)
}

// Dashboard fetches the stat feeds the user is entitled to, concurrently.
// A section the user's role cannot see is omitted rather than erroring.
func (c *ReportingClient) Dashboard(ctx context.Context, u *access.User) (map[string]json.RawMessage, error) {
	sections := []struct {
		name string
		path string
	}{
		{"leads", access.PathLeads},
		{"quotations", access.PathQuotations},
		{"commissions", access.PathCommissions},
	}

	var mu sync.Mutex
	out := make(map[string]json.RawMessage)

	g, gctx := errgroup.WithContext(ctx)
	for _, section := range sections {
		route, ok := access.RouteFor(section.path)
		if !ok || !access.Evaluate(u, route).Allowed {
			continue
		}
		g.Go(func() error {
			payload, err := c.get(gctx, "/reports/"+section.name, u, nil)
			if err != nil {
				return err
			}
			mu.Lock()
			out[section.name] = payload
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReportingClient) get(ctx context.Context, path string, u *access.User, params url.Values) (json.RawMessage, error) {
	scope := access.ScopeFor(u)
	if params == nil {
		params = url.Values{}
	}
	scoped := scope.ApplyQuery(params)

	endpoint := c.baseURL + path
	if encoded := scoped.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	scope.ApplyHeader(req.Header)
	req.Header.Set("Accept", "application/json")

	token, err := c.signToken(u)
	if err != nil {
		return nil, fmt.Errorf("sign reporting token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reporting request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read reporting response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Warn("reporting upstream failure",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode))
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

// signToken issues a short-lived HS256 token identifying the acting user.
func (c *ReportingClient) signToken(u *access.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "compass-crm",
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	if u != nil {
		claims["sub"] = fmt.Sprintf("%d", u.ID)
		claims["role"] = string(u.Role)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}
