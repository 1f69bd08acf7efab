// Package doorbell is a client for doorbell's own handlers. The invitation
// workflow uses it to invoke the send-invitation function as its second
// delivery channel.
package doorbell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/kindo-app/doorbell/models"
)

type (
	ClientInterface interface {
		SendInvitation(ctx context.Context, request models.SendInvitationRequest) (int, error)
		TestDelivery(ctx context.Context, email string) (*models.TestDeliveryResponse, error)
	}

	Client struct {
		host       string       // host url
		token      string       // bearer token, optional
		httpClient *http.Client // store a reference to the http client so we can reuse it
	}

	ClientBuilder struct {
		host       string
		token      string
		httpClient *http.Client
	}

	// StatusError is returned when a handler answers with a non 2xx status
	StatusError struct {
		StatusCode int
		Message    string
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{}
}

// WithHost set the host, including any path prefix such as /functions/v1
func (b *ClientBuilder) WithHost(host string) *ClientBuilder {
	b.host = strings.TrimRight(host, "/")
	return b
}

// WithToken set the bearer token sent with every call
func (b *ClientBuilder) WithToken(token string) *ClientBuilder {
	b.token = token
	return b
}

// WithHTTPClient set the HTTP client
func (b *ClientBuilder) WithHTTPClient(httpClient *http.Client) *ClientBuilder {
	b.httpClient = httpClient
	return b
}

// Build return client from builder
func (b *ClientBuilder) Build() *Client {
	if b.host == "" {
		panic("doorbell client requires a host to be set")
	}
	if b.httpClient == nil {
		b.httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: b.httpClient,
		host:       b.host,
		token:      b.token,
	}
}

func (client *Client) post(ctx context.Context, name string, payload interface{}) (*http.Response, []byte, error) {
	target, err := url.Parse(client.host)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse urlString[%s]", client.host)
	}
	target.Path = path.Join(target.Path, name)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encoding payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(encoded))
	if err != nil {
		return nil, nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if client.token != "" {
		req.Header.Set("Authorization", "Bearer "+client.token)
		req.Header.Set("apikey", client.token)
	}

	res, err := client.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invoking %s", name)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res, nil, errors.Wrap(err, "reading response")
	}
	return res, body, nil
}

// SendInvitation invokes the send-invitation function and returns its status code.
// Any non 2xx answer is an error.
func (client *Client) SendInvitation(ctx context.Context, request models.SendInvitationRequest) (int, error) {
	res, body, err := client.post(ctx, "send-invitation-email", request)
	if err != nil {
		return 0, err
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return res.StatusCode, &StatusError{StatusCode: res.StatusCode, Message: errorMessage(body)}
	}
	return res.StatusCode, nil
}

// TestDelivery invokes the connectivity probe
func (client *Client) TestDelivery(ctx context.Context, email string) (*models.TestDeliveryResponse, error) {
	res, body, err := client.post(ctx, "test-email", models.TestDeliveryRequest{Email: email})
	if err != nil {
		return nil, err
	}
	var out models.TestDeliveryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &StatusError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if res.StatusCode != http.StatusOK {
		return &out, &StatusError{StatusCode: res.StatusCode, Message: out.Error}
	}
	return &out, nil
}

func errorMessage(body []byte) string {
	var out models.ErrorResponse
	if err := json.Unmarshal(body, &out); err == nil && out.Error != "" {
		return out.Error
	}
	return strings.TrimSpace(string(body))
}
