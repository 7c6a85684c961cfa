package remote

import (
	"time"

	"github.com/IAMVanilka/Mnemy/internal/config"
	"github.com/IAMVanilka/Mnemy/internal/credstore"
	"github.com/imroc/req/v3"
)

// Client talks to the Mnemy backup server. The host is re-read from
// the config file and the token from the credential store on every
// call, so either can change between calls without re-creating the
// client.
type Client struct {
	api    *req.Client
	stream *req.Client

	loadHost  func() (string, error)
	loadToken func() (string, error)
}

type Option func(*Client)

// WithHostLoader overrides where the client reads the server host
// from. Used by tests.
func WithHostLoader(f func() (string, error)) Option {
	return func(c *Client) { c.loadHost = f }
}

// WithTokenLoader overrides where the client reads the API token
// from. Used by tests.
func WithTokenLoader(f func() (string, error)) Option {
	return func(c *Client) { c.loadToken = f }
}

func NewClient(opts ...Option) *Client {
	api := req.C().
		SetTimeout(30 * time.Second).
		SetRedirectPolicy(req.NoRedirectPolicy())

	// Separate client for archive bodies: responses must be consumed
	// as streams, not buffered.
	stream := req.C().
		SetRedirectPolicy(req.NoRedirectPolicy()).
		DisableAutoReadResponse()

	c := &Client{
		api:       api,
		stream:    stream,
		loadHost:  config.LoadHost,
		loadToken: credstore.Token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// creds resolves host and token, failing fast before any network I/O.
// A missing host and a missing token are distinct errors.
func (c *Client) creds() (host, token string, err error) {
	host, err = c.loadHost()
	if err != nil {
		return "", "", err
	}
	if host == "" {
		return "", "", ErrHostNotSet
	}

	token, err = c.loadToken()
	if err != nil {
		return "", "", err
	}

	return host, token, nil
}
