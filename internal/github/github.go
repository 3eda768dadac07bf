// Package github reads files and commit metadata out of GitHub
// repositories.
package github

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/agentstation/airsync/internal/transport"
	"github.com/agentstation/airsync/pkg/errors"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// Client fetches repository contents.
type Client struct {
	baseURL string
	topts   []transport.Option
	http    *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTransport passes options through to the HTTP transport.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) {
		c.topts = append(c.topts, opts...)
	}
}

// New creates a client. An empty token makes unauthenticated requests.
func New(token string, opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.http = transport.New("github", &transport.BearerAuth{}, token, c.topts...)
	return c
}

type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Path     string `json:"path"`
}

// File returns the contents of path in owner/repo at ref. An empty ref
// reads the default branch.
func (c *Client) File(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	if owner == "" || repo == "" {
		return nil, &errors.ValidationError{Field: "repo", Value: owner + "/" + repo, Message: "owner and repo are required"}
	}
	endpoint := c.baseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/contents/" + strings.TrimLeft(path, "/")
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	var resp contentResponse
	if err := c.http.Get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Type != "" && resp.Type != "file" {
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: "is a " + resp.Type + ", not a file"}
	}
	if resp.Encoding != "base64" {
		return []byte(resp.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, errors.WrapParse("base64", path, err)
	}
	return data, nil
}

// Commit is the last commit touching a path.
type Commit struct {
	SHA  string
	Date time.Time
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// LastCommit returns the most recent commit on ref that touched path.
func (c *Client) LastCommit(ctx context.Context, owner, repo, path, ref string) (Commit, error) {
	if owner == "" || repo == "" {
		return Commit{}, &errors.ValidationError{Field: "repo", Value: owner + "/" + repo, Message: "owner and repo are required"}
	}
	q := url.Values{}
	q.Set("path", strings.TrimLeft(path, "/"))
	q.Set("per_page", "1")
	if ref != "" {
		q.Set("sha", ref)
	}
	endpoint := c.baseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits?" + q.Encode()

	var commits []commitResponse
	if err := c.http.Get(ctx, endpoint, &commits); err != nil {
		return Commit{}, err
	}
	if len(commits) == 0 {
		return Commit{}, errors.NewNotFoundError("commit", owner+"/"+repo+"/"+path)
	}
	return Commit{SHA: commits[0].SHA, Date: commits[0].Commit.Author.Date.UTC()}, nil
}
