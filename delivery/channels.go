package delivery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/clients/doorbell"
	"github.com/kindo-app/doorbell/models"
)

const (
	ChannelDirect   = "direct"
	ChannelFunction = "function"
	ChannelLink     = "link"
)

// LinkIssuer mints action links
type LinkIssuer interface {
	IssueLink(ctx context.Context, request models.LinkRequest) (*models.ActionLink, error)
}

// NotifierChannel renders a template and hands it to a mail transport
type NotifierChannel struct {
	name      string
	notifier  clients.Notifier
	templates models.Templates
}

func NewNotifierChannel(name string, notifier clients.Notifier, templates models.Templates) *NotifierChannel {
	return &NotifierChannel{name: name, notifier: notifier, templates: templates}
}

func (c *NotifierChannel) Name() string {
	return c.name
}

func (c *NotifierChannel) Deliver(ctx context.Context, msg Message) Result {
	template, ok := c.templates[msg.Template]
	if !ok {
		return Result{Channel: c.name, Err: fmt.Errorf("unknown template %q", msg.Template)}
	}
	subject, body, err := template.Execute(msg.Content)
	if err != nil {
		return Result{Channel: c.name, Err: errors.Wrap(err, "rendering message")}
	}
	status, details := c.notifier.Send(ctx, []string{msg.Email}, subject, body)
	if status != http.StatusOK {
		return Result{Channel: c.name, Status: status, Err: errors.New(details)}
	}
	return Result{Channel: c.name, Status: status}
}

// FunctionChannel invokes the send-invitation function with the email, name and link
type FunctionChannel struct {
	client doorbell.ClientInterface
}

func NewFunctionChannel(client doorbell.ClientInterface) *FunctionChannel {
	return &FunctionChannel{client: client}
}

func (c *FunctionChannel) Name() string {
	return ChannelFunction
}

func (c *FunctionChannel) Deliver(ctx context.Context, msg Message) Result {
	status, err := c.client.SendInvitation(ctx, models.SendInvitationRequest{
		Email:     msg.Email,
		Name:      msg.Name,
		ResetLink: msg.ResetLink,
	})
	return Result{Channel: ChannelFunction, Status: status, Err: err}
}

// LinkChannel asks the issuer for a recovery link. A minted link is taken as proof
// the delivery configuration is live; nothing is sent by this channel itself.
type LinkChannel struct {
	issuer  LinkIssuer
	siteURL string
}

func NewLinkChannel(issuer LinkIssuer, siteURL string) *LinkChannel {
	return &LinkChannel{issuer: issuer, siteURL: siteURL}
}

func (c *LinkChannel) Name() string {
	return ChannelLink
}

func (c *LinkChannel) Deliver(ctx context.Context, msg Message) Result {
	link, err := c.issuer.IssueLink(ctx, models.LinkRequest{
		Type:       models.LinkTypeRecovery,
		Email:      msg.Email,
		RedirectTo: models.ResetPasswordRedirect(c.siteURL, msg.Email),
	})
	if err != nil {
		return Result{Channel: ChannelLink, Err: err}
	}
	if link == nil || link.URL == "" {
		return Result{Channel: ChannelLink, Err: errors.New("no action link returned")}
	}
	return Result{Channel: ChannelLink, Status: http.StatusOK}
}
