// Package client talks to the remote catalogue service. Authentication is
// an opaque cookie session held in the http client's jar; callers log in
// once and every later request rides on the same jar.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Remote endpoints.
const (
	loginEndpoint              = "/api/login"
	authorCatalogueEndpoint    = "/api/catalogue/author"
	publisherCatalogueEndpoint = "/api/catalogue/publisher"
	genreEndpoint              = "/api/genres"
	uploadAuthorEndpoint       = "/api/publisher/author"
	uploadBookEndpoint         = "/api/publisher/book"
)

// APIError is the structured error body the service returns on failed
// requests.
type APIError struct {
	Message    string `json:"message"`
	Status     string `json:"status"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status: %s)", e.Message, e.Status)
	}
	return fmt.Sprintf("server returned status code %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	hasSession bool
}

func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
	}, nil
}

// SetSession installs an externally obtained cookie session.
func (c *Client) SetSession(cookies []*http.Cookie) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "invalid base URL")
	}
	c.httpClient.Jar.SetCookies(u, cookies)
	c.hasSession = len(cookies) > 0
	return nil
}

func (c *Client) HasSession() bool {
	return c.hasSession
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates against the service; the session cookie lands in the
// jar as a side effect.
func (c *Client) Login(username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+loginEndpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "login request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	c.hasSession = true
	return nil
}

// FetchAuthorCatalogue returns the flat author catalogue for author and
// regular accounts.
func (c *Client) FetchAuthorCatalogue() ([]CatalogueEntry, error) {
	var entries []CatalogueEntry
	if err := c.getJSON(authorCatalogueEndpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchPublisherCatalogue returns the nested publisher catalogue.
func (c *Client) FetchPublisherCatalogue() ([]PublisherEntry, error) {
	var entries []PublisherEntry
	if err := c.getJSON(publisherCatalogueEndpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FetchGenres returns the shared taxonomy vocabulary.
func (c *Client) FetchGenres() ([]GenrePayload, error) {
	var genres []GenrePayload
	if err := c.getJSON(genreEndpoint, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// PushAuthor uploads one author record. A non-2xx response comes back as an
// *APIError carrying the server's message when one could be decoded.
func (c *Client) PushAuthor(author *AuthorPayload) error {
	return c.postJSON(uploadAuthorEndpoint, author)
}

// PushBook uploads one book record with its nested taxonomy list.
func (c *Client) PushBook(book *BookPayload) error {
	return c.postJSON(uploadBookEndpoint, book)
}

// Get issues a plain GET through the session, used for image downloads.
func (c *Client) Get(rawURL string) (*http.Response, error) {
	return c.httpClient.Get(rawURL)
}

// ResolveURL prefixes relative catalogue paths with the API origin.
func (c *Client) ResolveURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return c.baseURL + "/" + strings.TrimLeft(raw, "/")
}

func (c *Client) getJSON(endpoint string, out any) error {
	resp, err := c.httpClient.Get(c.baseURL + endpoint)
	if err != nil {
		return errors.Wrapf(err, "GET %s failed", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", endpoint)
	}
	return nil
}

func (c *Client) postJSON(endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to encode payload for %s", endpoint)
	}

	resp, err := c.httpClient.Post(c.baseURL+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "POST %s failed", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeAPIError(resp)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		// The body may not be JSON at all; the status-code message covers
		// that case.
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}
