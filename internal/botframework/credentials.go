// Package botframework holds the Bot Framework connector plumbing: app
// credentials, the user-token service, and the conversation responder.
package botframework

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// AppCredentials exchanges the bot's app id and password for a service
// token and caches it until shortly before expiry.
type AppCredentials struct {
	appID    string
	password string
	loginURL string
	rest     *resty.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewAppCredentials builds a credential cache. With an empty appID the
// Token method returns an empty token, which suits local emulator runs.
func NewAppCredentials(appID, password, loginURL string) *AppCredentials {
	return &AppCredentials{
		appID:    appID,
		password: password,
		loginURL: loginURL,
		rest:     resty.New().SetTimeout(15 * time.Second),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a cached service token, refreshing when it has less
// than a minute of life left.
func (c *AppCredentials) Token(ctx context.Context) (string, error) {
	if c.appID == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.expires) > time.Minute {
		return c.token, nil
	}

	var result tokenResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.appID,
			"client_secret": c.password,
			"scope":         "https://api.botframework.com/.default",
		}).
		SetResult(&result).
		Post(c.loginURL)
	if err != nil {
		return "", apperrors.NewStorageUnavailable(fmt.Errorf("bot login request: %w", err))
	}
	if !resp.IsSuccess() {
		return "", apperrors.NewAuthenticationFailed(
			fmt.Sprintf("bot login returned status %d", resp.StatusCode()))
	}

	c.token = result.AccessToken
	c.expires = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return c.token, nil
}
