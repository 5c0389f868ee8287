// Package platform is the outbound adapter for the hosted commerce
// API: product projections, categories, carts with optimistic
// concurrency, tax categories, discount codes and customer sign-in.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crazybooks/storefront/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

var ErrUnexpectedStatus = errors.New("unexpected response status")

// statusError carries the HTTP status of a failed API call for the
// few places that need to branch on it.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected response status: %d %s", e.code, e.body)
}

func (e *statusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

type Config struct {
	BaseURL    string
	ProjectKey string
	AuthToken  string
	// Locale selects the display variant of pre-translated fields.
	Locale string
	// TaxCountry is the single country used when the client has to
	// create the default zero-rate tax category.
	TaxCountry string
	// Currency for newly created carts.
	Currency string
	HTTP     *http.Client
}

type Client struct {
	http       *http.Client
	baseURL    string
	projectKey string
	authToken  string
	locale     string
	taxCountry string
	currency   string
}

func New(cfg Config) (*Client, error) {
	const op = "platform.New"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", op)
	}
	if cfg.ProjectKey == "" {
		return nil, fmt.Errorf("%s: project key is required", op)
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	locale := cfg.Locale
	if locale == "" {
		locale = "en"
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &Client{
		http:       hc,
		baseURL:    cfg.BaseURL,
		projectKey: cfg.ProjectKey,
		authToken:  cfg.AuthToken,
		locale:     locale,
		taxCountry: cfg.TaxCountry,
		currency:   currency,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + c.projectKey + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one API call and decodes the JSON response into out.
// 404 maps to domain.ErrNotFound, 409 to domain.ErrConflict.
func (c *Client) do(
	ctx context.Context, method, url string, body, out any,
) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{
			code: resp.StatusCode,
			body: string(bytes.TrimSpace(msg)),
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// localized picks the configured display locale from a pre-translated
// field, falling back to any value when the locale is missing.
func (c *Client) localized(m map[string]string) string {
	if v, ok := m[c.locale]; ok {
		return v
	}
	for _, v := range m {
		return v
	}
	return ""
}
