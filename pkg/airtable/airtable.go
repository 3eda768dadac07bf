// Package airtable implements mirror.Mirror against the Airtable REST API.
package airtable

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/airsync/internal/transport"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Client talks to one Airtable base.
type Client struct {
	base     string
	baseURL  string
	typecast bool
	topts    []transport.Option
	http     *transport.Client
}

var _ mirror.Mirror = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTypecast asks Airtable to coerce string values into the column
// types on writes.
func WithTypecast(on bool) Option {
	return func(c *Client) {
		c.typecast = on
	}
}

// WithTransport passes options through to the HTTP transport.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) {
		c.topts = append(c.topts, opts...)
	}
}

// New creates a client for base authenticating with apiKey.
func New(apiKey, base string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError("airtable", "API key is not set", errors.ErrAPIKeyRequired)
	}
	if base == "" {
		return nil, errors.NewConfigError("airtable", "base id is not set", nil)
	}
	c := &Client{base: base, baseURL: constants.AirtableBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.http = transport.New("airtable", &transport.BearerAuth{}, apiKey, c.topts...)
	return c, nil
}

// Base returns the base id.
func (c *Client) Base() string {
	return c.base
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.base) + "/" + url.PathEscape(table)
}

type listResponse struct {
	Records []mirror.Record `json:"records"`
	Offset  string          `json:"offset,omitempty"`
}

type writeRequest struct {
	Records  []mirror.Record `json:"records"`
	Typecast bool            `json:"typecast,omitempty"`
}

type writeResponse struct {
	Records []mirror.Record `json:"records"`
}

// ListRecords implements mirror.Mirror.
func (c *Client) ListRecords(ctx context.Context, table string, opts mirror.ListOptions) ([]mirror.Record, error) {
	q := url.Values{}
	pageSize := constants.DefaultPageSize
	if opts.PageSize > 0 && opts.PageSize < pageSize {
		pageSize = opts.PageSize
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if opts.View != "" {
		q.Set("view", opts.View)
	}
	if opts.FilterByFormula != "" {
		q.Set("filterByFormula", opts.FilterByFormula)
	}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}

	logger := logging.FromContext(ctx)
	records, err := mirror.CollectPages(ctx, table, func(ctx context.Context, offset string) ([]mirror.Record, string, error) {
		if offset != "" {
			q.Set("offset", offset)
		}
		var resp listResponse
		if err := c.http.Get(ctx, c.tableURL(table)+"?"+q.Encode(), &resp); err != nil {
			return nil, "", err
		}
		return resp.Records, resp.Offset, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("records", len(records)).Msg("Listed remote records")
	return records, nil
}

// CreateRecords implements mirror.Mirror.
func (c *Client) CreateRecords(ctx context.Context, table string, records []mirror.Record) ([]mirror.Record, error) {
	payload := make([]mirror.Record, len(records))
	for i, r := range records {
		payload[i] = mirror.Record{Fields: r.Fields}
	}
	return c.write(ctx, http.MethodPost, table, payload)
}

// UpdateRecords implements mirror.Mirror. It uses PATCH so fields absent
// from the payload are left alone.
func (c *Client) UpdateRecords(ctx context.Context, table string, records []mirror.Record) ([]mirror.Record, error) {
	payload := make([]mirror.Record, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, errors.NewValidationError("records["+strconv.Itoa(i)+"].id", "", "is required for update")
		}
		payload[i] = mirror.Record{ID: r.ID, Fields: r.Fields}
	}
	return c.write(ctx, http.MethodPatch, table, payload)
}

func (c *Client) write(ctx context.Context, method, table string, records []mirror.Record) ([]mirror.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]mirror.Record, 0, len(records))
	for _, batch := range mirror.Chunk(records, constants.MaxBatchSize) {
		var resp writeResponse
		req := writeRequest{Records: batch, Typecast: c.typecast}
		if err := c.http.DoJSON(ctx, method, c.tableURL(table), req, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Records...)
	}
	return out, nil
}
