package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/basehelp/basehelp/internal/tenant"
)

// UserInfo is the subset of a Slack user record the sign-in flow needs.
type UserInfo struct {
	Name     string
	RealName string
}

// Client is the slice of the Slack Web API the processor uses.
type Client interface {
	PostMessage(ctx context.Context, channelID, threadTS, text string) error
	UserInfo(ctx context.Context, slackUserID string) (*UserInfo, error)
}

// ClientFactory builds a Slack client authenticated as a tenant's bot.
type ClientFactory func(t *tenant.Tenant) (Client, error)

// NewClient returns the slack-go backed client for a tenant.
func NewClient(t *tenant.Tenant) (Client, error) {
	if t.SlackBotToken == "" {
		return nil, fmt.Errorf("tenant %s has no Slack bot token", t.Slug)
	}
	return &webAPIClient{api: slack.New(t.SlackBotToken)}, nil
}

type webAPIClient struct {
	api *slack.Client
}

func (c *webAPIClient) PostMessage(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

func (c *webAPIClient) UserInfo(ctx context.Context, slackUserID string) (*UserInfo, error) {
	user, err := c.api.GetUserInfoContext(ctx, slackUserID)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	return &UserInfo{Name: user.Name, RealName: user.RealName}, nil
}
