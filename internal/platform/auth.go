package platform

import (
	"context"
	"fmt"

	"github.com/baikal-ai/baikalctl/internal/gateway"
	"github.com/baikal-ai/baikalctl/internal/session"
)

// Auth wraps the login/logout flow and the current-user endpoint. It is
// the only writer of the session store besides the gateway's auth-failure
// interception.
type Auth struct {
	client   *gateway.Client
	sessions *session.Store
}

func NewAuth(client *gateway.Client, sessions *session.Store) *Auth {
	return &Auth{client: client, sessions: sessions}
}

// Login exchanges credentials for a bearer token and stores it.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	resp, err := a.client.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := gateway.DecodeJSON(resp, &result); err != nil {
		return err
	}
	if result.AccessToken == "" {
		return fmt.Errorf("login response carried no access token")
	}
	return a.sessions.SetToken(result.AccessToken)
}

// Logout discards the local session. The backend holds no server-side
// session state to invalidate.
func (a *Auth) Logout() error {
	return a.sessions.Clear()
}

// Me fetches the authenticated user's profile.
func (a *Auth) Me(ctx context.Context) (UserInfo, error) {
	resp, err := a.client.Get(ctx, "/auth/me")
	if err != nil {
		return UserInfo{}, err
	}
	var user UserInfo
	if err := gateway.DecodeJSON(resp, &user); err != nil {
		return UserInfo{}, err
	}
	return user, nil
}
