// Package slack builds Block Kit messages and posts them to an incoming
// webhook.
package slack

import (
	"context"
	"net/http"

	"github.com/agentstation/airsync/internal/transport"
	"github.com/agentstation/airsync/pkg/errors"
)

// BlockType is the type of a message block.
type BlockType string

// Block types used by airsync messages.
const (
	BlockSection BlockType = "section"
	BlockContext BlockType = "context"
	BlockDivider BlockType = "divider"
)

// TextType is the formatting of a text object.
type TextType string

// Text types.
const (
	Markdown  TextType = "mrkdwn"
	PlainText TextType = "plain_text"
)

// Text is a Block Kit text object.
type Text struct {
	Type TextType `json:"type"`
	Text string   `json:"text"`
}

// Block is a Block Kit layout block.
type Block struct {
	Type     BlockType `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Text    `json:"elements,omitempty"`
	Fields   []Text    `json:"fields,omitempty"`
	BlockID  string    `json:"block_id,omitempty"`
}

// Message is a webhook payload.
type Message struct {
	Channel string  `json:"channel,omitempty"`
	Text    string  `json:"text,omitempty"`
	Blocks  []Block `json:"blocks,omitempty"`
}

// Section returns a section block with markdown text.
func Section(markdown string) Block {
	return Block{Type: BlockSection, Text: &Text{Type: Markdown, Text: markdown}}
}

// Context returns a context block with one markdown element per argument.
func Context(markdown ...string) Block {
	elems := make([]Text, len(markdown))
	for i, m := range markdown {
		elems[i] = Text{Type: Markdown, Text: m}
	}
	return Block{Type: BlockContext, Elements: elems}
}

// Divider returns a divider block.
func Divider() Block {
	return Block{Type: BlockDivider}
}

// Poster sends messages to a channel.
type Poster interface {
	Post(ctx context.Context, msg Message) error
}

// Webhook posts messages to a Slack incoming webhook URL.
type Webhook struct {
	url    string
	client *transport.Client
}

var _ Poster = (*Webhook)(nil)

// NewWebhook returns a Webhook posting to url.
func NewWebhook(url string, opts ...transport.Option) *Webhook {
	return &Webhook{
		url:    url,
		client: transport.New("slack", &transport.NoAuth{}, "", opts...),
	}
}

// Post implements Poster.
func (w *Webhook) Post(ctx context.Context, msg Message) error {
	if w.url == "" {
		return errors.NewConfigError("slack", "webhook URL is not set", nil)
	}
	if len(msg.Blocks) == 0 && msg.Text == "" {
		return &errors.ValidationError{Field: "message", Message: "has neither text nor blocks"}
	}
	return w.client.DoJSON(ctx, http.MethodPost, w.url, msg, nil)
}
