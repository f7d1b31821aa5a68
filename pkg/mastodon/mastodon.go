package mastodon

import (
	"context"

	gomastodon "github.com/mattn/go-mastodon"
	"github.com/pkg/errors"
	"gitlab.com/meutraa/foxfactbot/pkg/poster"
)

const DefaultServer = "https://mastodon.social"

type Account struct {
	ID       string
	Username string
	Acct     string
	URL      string
}

type Client struct {
	c *gomastodon.Client
}

func New(server, accessToken string) *Client {
	return &Client{
		c: gomastodon.NewClient(&gomastodon.Config{
			Server:      server,
			AccessToken: accessToken,
		}),
	}
}

func (c *Client) Verify(ctx context.Context) (*Account, error) {
	a, err := c.c.GetAccountCurrentUser(ctx)
	if nil != err {
		return nil, errors.Wrap(err, "unable to verify account credentials")
	}
	return &Account{
		ID:       string(a.ID),
		Username: a.Username,
		Acct:     a.Acct,
		URL:      a.URL,
	}, nil
}

// Publish posts text as a new status with the account's default visibility,
// no reply target, no media and no content warning.
func (c *Client) Publish(ctx context.Context, text string) (*poster.Status, error) {
	s, err := c.c.PostStatus(ctx, &gomastodon.Toot{Status: text})
	if nil != err {
		return nil, errors.Wrap(err, "unable to post status")
	}
	return &poster.Status{ID: string(s.ID), URL: s.URL}, nil
}
