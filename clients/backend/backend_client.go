// Package backend talks to the hosted backend-as-a-service that owns user
// accounts, profile and family tables, action links and serverless functions.
package backend

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
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/kindo-app/doorbell/models"
)

const (
	profilesTable      = "profiles"
	familyMembersTable = "family_members"

	defaultMessagingPath = "/functions/v1/send-email"
)

type (
	Config struct {
		URL            string        `envconfig:"SUPABASE_URL" required:"true"`
		ServiceRoleKey string        `envconfig:"SUPABASE_SERVICE_ROLE_KEY" required:"true"`
		EmailProvider  string        `envconfig:"SUPABASE_EMAIL_PROVIDER" default:"Default"`
		MessagingPath  string        `envconfig:"SUPABASE_MESSAGING_PATH" default:"/functions/v1/send-email"`
		Timeout        time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	}

	Client struct {
		host          string       // host url
		key           string       // service credential
		messagingPath string       // path of the transactional send endpoint
		httpClient    *http.Client // store a reference to the http client so we can reuse it
	}

	ClientBuilder struct {
		host          string
		key           string
		messagingPath string
		httpClient    *http.Client
	}

	// Error carries the backend's own message so it can be surfaced verbatim
	Error struct {
		StatusCode int
		Message    string
	}
)

func (e *Error) Error() string {
	return e.Message
}

func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{messagingPath: defaultMessagingPath}
}

// WithHost set the host
func (b *ClientBuilder) WithHost(host string) *ClientBuilder {
	b.host = strings.TrimRight(host, "/")
	return b
}

// WithServiceKey set the service credential sent with every call
func (b *ClientBuilder) WithServiceKey(key string) *ClientBuilder {
	b.key = key
	return b
}

// WithMessagingPath set the path of the transactional send endpoint
func (b *ClientBuilder) WithMessagingPath(messagingPath string) *ClientBuilder {
	if messagingPath != "" {
		b.messagingPath = messagingPath
	}
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
		panic("backend client requires a host to be set")
	}
	if b.key == "" {
		panic("backend client requires a service key to be set")
	}
	if b.httpClient == nil {
		b.httpClient = http.DefaultClient
	}

	return &Client{
		host:          b.host,
		key:           b.key,
		messagingPath: b.messagingPath,
		httpClient:    b.httpClient,
	}
}

func (client *Client) Host() string {
	return client.host
}

func (client *Client) buildURL(pathParts ...string) (string, error) {
	base, err := url.Parse(client.host)
	if err != nil {
		return "", fmt.Errorf("unable to parse urlString[%s]", client.host)
	}
	base.Path = path.Join(append([]string{base.Path}, pathParts...)...)
	return base.String(), nil
}

// do posts a json payload and decodes a json answer into out when out is not nil
func (client *Client) do(ctx context.Context, method string, target string, payload interface{}, out interface{}, headers map[string]string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("apikey", client.key)
	req.Header.Set("Authorization", "Bearer "+client.key)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s", req.URL.Path)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return extractError(res.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// extractError reads the message out of the different error bodies the backend uses
func extractError(statusCode int, raw []byte) *Error {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, candidate := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if candidate != "" {
				message = candidate
				break
			}
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = fmt.Sprintf("unexpected response code %d", statusCode)
	}
	return &Error{StatusCode: statusCode, Message: message}
}

type createUserRequest struct {
	Email        string             `json:"email"`
	Password     string             `json:"password"`
	EmailConfirm bool               `json:"email_confirm"`
	UserMetadata *models.LinkClaims `json:"user_metadata,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	User  *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user,omitempty"`
}

// Provision creates a pre-confirmed user carrying the invitation claims as metadata
func (client *Client) Provision(ctx context.Context, invitee models.Invitee, password string) (*models.ProvisionedIdentity, error) {
	target, err := client.buildURL("auth", "v1", "admin", "users")
	if err != nil {
		return nil, err
	}
	payload := createUserRequest{
		Email:        invitee.Email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: invitee.Claims(),
	}
	var user userResponse
	if err := client.do(ctx, http.MethodPost, target, payload, &user, nil); err != nil {
		return nil, err
	}
	id := user.ID
	if id == "" && user.User != nil {
		id = user.User.ID
	}
	if id == "" {
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: "user created without an id"}
	}
	return &models.ProvisionedIdentity{UserID: id, Email: invitee.Email, TemporaryPassword: password}, nil
}

func (client *Client) insertRow(ctx context.Context, table string, row interface{}) error {
	target, err := client.buildURL("rest", "v1", table)
	if err != nil {
		return err
	}
	return client.do(ctx, http.MethodPost, target, row, nil, map[string]string{"Prefer": "return=minimal"})
}

func (client *Client) RecordProfile(ctx context.Context, profile *models.Profile) error {
	return client.insertRow(ctx, profilesTable, profile)
}

func (client *Client) RecordFamilyMember(ctx context.Context, member *models.FamilyMember) error {
	return client.insertRow(ctx, familyMembersTable, member)
}

type generateLinkRequest struct {
	Type       string             `json:"type"`
	Email      string             `json:"email"`
	RedirectTo string             `json:"redirect_to,omitempty"`
	Data       *models.LinkClaims `json:"data,omitempty"`
}

type generateLinkResponse struct {
	ActionLink string `json:"action_link"`
	Properties *struct {
		ActionLink string `json:"action_link"`
	} `json:"properties,omitempty"`
}

// IssueLink asks the backend for an action link of the requested type
func (client *Client) IssueLink(ctx context.Context, request models.LinkRequest) (*models.ActionLink, error) {
	target, err := client.buildURL("auth", "v1", "admin", "generate_link")
	if err != nil {
		return nil, err
	}
	payload := generateLinkRequest{
		Type:       request.Type,
		Email:      request.Email,
		RedirectTo: request.RedirectTo,
		Data:       request.Claims,
	}
	var link generateLinkResponse
	if err := client.do(ctx, http.MethodPost, target, payload, &link, nil); err != nil {
		return nil, err
	}
	actionLink := link.ActionLink
	if actionLink == "" && link.Properties != nil {
		actionLink = link.Properties.ActionLink
	}
	if actionLink == "" {
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: "link generated without an action link"}
	}
	return &models.ActionLink{URL: actionLink, RedirectTo: request.RedirectTo, Claims: request.Claims}, nil
}

type sendEmailRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers through the backend's messaging surface; it satisfies clients.Notifier
func (client *Client) Send(ctx context.Context, addresses []string, subject, content string) (int, string) {
	target, err := client.buildURL(client.messagingPath)
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}
	for _, address := range addresses {
		err := client.do(ctx, http.MethodPost, target, sendEmailRequest{Email: address, Subject: subject, HTML: content}, nil, nil)
		if err != nil {
			var backendErr *Error
			if errors.As(err, &backendErr) {
				return backendErr.StatusCode, backendErr.Message
			}
			return http.StatusInternalServerError, err.Error()
		}
	}
	return http.StatusOK, "OK"
}

func configProvider() (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func clientProvider(config Config) *Client {
	return NewClientBuilder().
		WithHost(config.URL).
		WithServiceKey(config.ServiceRoleKey).
		WithMessagingPath(config.MessagingPath).
		WithHTTPClient(&http.Client{Timeout: config.Timeout}).
		Build()
}

var Module = fx.Options(fx.Provide(configProvider, clientProvider))
