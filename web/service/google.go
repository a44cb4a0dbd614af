package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"secret-keeper/config"
	"secret-keeper/database/model"
	"secret-keeper/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// googleProfile is the subset of the OpenID userinfo response we need.
// Sub is the stable subject id the local account is bound to.
type googleProfile struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleAuthService drives one OAuth authorization attempt: redirect
// URL construction, code exchange, profile fetch and find-or-create of
// the federated local account.
type GoogleAuthService struct {
	oauth       oauth2.Config
	userInfoURL string

	userService UserService
}

// NewGoogleAuthService builds the federator from static configuration.
// Endpoint URLs default to Google's; tests override them.
func NewGoogleAuthService(cfg config.OAuthConfig) *GoogleAuthService {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" && cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	return &GoogleAuthService{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackBase + "/auth/google/secrets",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL returns the provider authorization URL for one attempt.
// No local state is created; the caller keeps the state nonce in the
// session for the callback check.
func (s *GoogleAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Authenticate exchanges the authorization code for a verified profile
// and resolves it to a local user. Any exchange or profile failure is
// reported as ErrFederation; no partial user is created in that case.
func (s *GoogleAuthService) Authenticate(ctx context.Context, code string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Warning("oauth code exchange failed:", err)
		return nil, fmt.Errorf("%w: %v", ErrFederation, err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		logger.Warning("oauth profile fetch failed:", err)
		return nil, fmt.Errorf("%w: %v", ErrFederation, err)
	}
	if profile.Sub == "" {
		return nil, fmt.Errorf("%w: profile has no subject id", ErrFederation)
	}

	return s.userService.FindOrCreateByGoogleId(profile.Sub)
}

func (s *GoogleAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %s", resp.Status)
	}

	profile := &googleProfile{}
	if err := json.NewDecoder(resp.Body).Decode(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
