package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client represents a Supabase client
type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a new Supabase client
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		URL:        baseURL,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Error is returned for PostgREST or GoTrue responses with status >= 400
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Body)
}

// Query executes a GET on a Supabase table. Values are PostgREST filters,
// e.g. "user_id": "eq.abc". A key may repeat by passing a []string.
func (c *Client) Query(ctx context.Context, table string, query map[string]interface{}) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL(table), nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = encodeQuery(query).Encode()
	return c.do(req)
}

// Insert inserts one record or a slice of records into a Supabase table
func (c *Client) Insert(ctx context.Context, table string, data interface{}) ([]byte, error) {
	return c.post(ctx, table, data, "return=representation")
}

// Upsert inserts records, overwriting rows whose primary key already exists
func (c *Client) Upsert(ctx context.Context, table string, data interface{}) error {
	_, err := c.post(ctx, table, data, "resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) post(ctx context.Context, table string, data interface{}, prefer string) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)
	return c.do(req)
}

// DeleteWhere deletes records matching a query
func (c *Client) DeleteWhere(ctx context.Context, table string, query map[string]interface{}) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.tableURL(table), nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = encodeQuery(query).Encode()
	_, err = c.do(req)
	return err
}

// VerifyToken verifies a JWT token with Supabase
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/auth/v1/user", c.URL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// User represents a Supabase user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/rest/v1/%s", c.URL, table)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.ServiceKey))
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func encodeQuery(query map[string]interface{}) url.Values {
	q := url.Values{}
	for key, value := range query {
		switch v := value.(type) {
		case []string:
			for _, s := range v {
				q.Add(key, s)
			}
		default:
			q.Add(key, fmt.Sprintf("%v", v))
		}
	}
	return q
}
