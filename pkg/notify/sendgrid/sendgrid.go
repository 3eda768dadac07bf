// Package sendgrid sends email through the SendGrid v3 mail API.
package sendgrid

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentstation/airsync/internal/transport"
	"github.com/agentstation/airsync/pkg/errors"
)

// DefaultBaseURL is the SendGrid v3 API root.
const DefaultBaseURL = "https://api.sendgrid.com/v3"

// Email is an address with an optional display name.
type Email struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Content is one body part of a message.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Personalization addresses a message. It needs at least one To.
type Personalization struct {
	To                  []Email           `json:"to"`
	Cc                  []Email           `json:"cc,omitempty"`
	Bcc                 []Email           `json:"bcc,omitempty"`
	Subject             string            `json:"subject,omitempty"`
	Headers             map[string]string `json:"headers,omitempty"`
	DynamicTemplateData map[string]string `json:"dynamic_template_data,omitempty"`
}

// Attachment is a file attached to a message. Content is base64 encoded.
type Attachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

// NewAttachment encodes data as an attachment.
func NewAttachment(filename, mimeType string, data []byte) Attachment {
	return Attachment{
		Content:  base64.StdEncoding.EncodeToString(data),
		Filename: filename,
		Type:     mimeType,
	}
}

// Message is the body of a mail send call.
type Message struct {
	From             Email             `json:"from"`
	Subject          string            `json:"subject"`
	Personalizations []Personalization `json:"personalizations"`
	Content          []Content         `json:"content,omitempty"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	TemplateID       string            `json:"template_id,omitempty"`
}

// NewMessage starts a message from from with subject.
func NewMessage(from Email, subject string) *Message {
	return &Message{From: from, Subject: subject}
}

// AddText appends a text/plain body part.
func (m *Message) AddText(body string) *Message {
	m.Content = append(m.Content, Content{Type: "text/plain", Value: body})
	return m
}

// AddContent appends a body part.
func (m *Message) AddContent(c Content) *Message {
	m.Content = append(m.Content, c)
	return m
}

// AddPersonalization appends a personalization block.
func (m *Message) AddPersonalization(p Personalization) *Message {
	m.Personalizations = append(m.Personalizations, p)
	return m
}

// AddAttachment appends an attachment.
func (m *Message) AddAttachment(a Attachment) *Message {
	m.Attachments = append(m.Attachments, a)
	return m
}

// SetTemplateID sets the dynamic template to render.
func (m *Message) SetTemplateID(id string) *Message {
	m.TemplateID = id
	return m
}

// Validate checks the fields SendGrid rejects a send without.
func (m *Message) Validate() error {
	if m.From.Email == "" {
		return errors.NewValidationError("from", "", "is required")
	}
	if len(m.Personalizations) == 0 {
		return errors.NewValidationError("personalizations", 0, "at least one is required")
	}
	for i, p := range m.Personalizations {
		if len(p.To) == 0 {
			return errors.NewValidationError(fmt.Sprintf("personalizations[%d].to", i), 0, "at least one recipient is required")
		}
	}
	if len(m.Content) == 0 && m.TemplateID == "" {
		return errors.NewValidationError("content", 0, "content or a template is required")
	}
	return nil
}

// Sender sends email.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Client is a SendGrid API client. Domain is the organisation's mail
// domain used to build sender addresses.
type Client struct {
	domain  string
	baseURL string
	topts   []transport.Option
	client  *transport.Client
}

var _ Sender = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithTransport passes options through to the HTTP transport.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) {
		c.topts = append(c.topts, opts...)
	}
}

// New creates a client authenticating with apiKey.
func New(apiKey, domain string, opts ...Option) *Client {
	c := &Client{domain: domain, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.client = transport.New("sendgrid", &transport.BearerAuth{}, apiKey, c.topts...)
	return c
}

// Domain returns the configured mail domain.
func (c *Client) Domain() string {
	return c.domain
}

// Send implements Sender.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.client.DoJSON(ctx, http.MethodPost, c.baseURL+"/mail/send", msg, nil)
}
