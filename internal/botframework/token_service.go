package botframework

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/spec-kit/teams-support-bot/pkg/util"
)

// TokenService queries the Bot Framework user-token store for tokens the
// user already consented to. A miss is not an error; it means the dialog
// has to fall back to an interactive sign-in.
type TokenService struct {
	rest        *resty.Client
	credentials *AppCredentials
	channelID   string
}

// NewTokenService builds a token-service client rooted at baseURL.
func NewTokenService(baseURL string, credentials *AppCredentials, channelID string) *TokenService {
	if channelID == "" {
		channelID = "msteams"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &TokenService{rest: client, credentials: credentials, channelID: channelID}
}

type userTokenResponse struct {
	Token string `json:"token"`
}

// GetUserToken attempts the silent token fetch. It returns an empty
// token (and nil error) when the store has nothing for the user.
func (s *TokenService) GetUserToken(ctx context.Context, userID, connectionName string) (string, error) {
	serviceToken, err := s.credentials.Token(ctx)
	if err != nil {
		return "", err
	}

	var result userTokenResponse
	resp, err := s.rest.R().
		SetContext(ctx).
		SetAuthToken(serviceToken).
		SetQueryParams(map[string]string{
			"userId":         userID,
			"connectionName": connectionName,
			"channelId":      s.channelID,
		}).
		SetResult(&result).
		Get("/api/usertoken/GetToken")
	if err != nil {
		return "", apperrors.NewStorageUnavailable(fmt.Errorf("user token request: %w", err))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", nil
	}
	if !resp.IsSuccess() {
		return "", apperrors.NewStorageUnavailable(
			fmt.Errorf("user token service returned status %d", resp.StatusCode()))
	}
	return result.Token, nil
}
