package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/adapters/driven/auth"
	"github.com/trailstone/osgraph/internal/core/domain"
)

// Ensure exchanger implements the interface.
var _ auth.TokenExchanger = (*exchanger)(nil)

// exchanger performs the Grid credential flows: a userId/password login
// and a Refresh-Token header exchange. Grid sends the access token as the
// bare Authorization value, hence auth.RawAuthorize on the session.
type exchanger struct {
	authBase string
	username string
	password string
	client   *http.Client
}

func newExchanger(authBase, username, password string) *exchanger {
	return &exchanger{
		authBase: authBase,
		username: username,
		password: password,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Login exchanges the configured credentials for a token pair.
func (e *exchanger) Login(ctx context.Context) (*domain.SessionCredential, error) {
	payload, err := json.Marshal(map[string]string{
		"userId":   e.username,
		"password": e.password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.authBase+"/oauth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return e.exchange(req)
}

// Refresh trades the refresh token for a new token pair.
func (e *exchanger) Refresh(ctx context.Context, cred *domain.SessionCredential) (*domain.SessionCredential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.authBase+"/oauth/token", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", cred.AccessToken)
	req.Header.Set("Refresh-Token", cred.RefreshToken)

	return e.exchange(req)
}

func (e *exchanger) exchange(req *http.Request) (*domain.SessionCredential, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange returned %d", resp.StatusCode)
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("success").Exists() && !parsed.Get("success").Bool() {
		return nil, fmt.Errorf("token exchange rejected: %s", parsed.Get("message").String())
	}
	token := parsed.Get("data.access_token").String()
	if token == "" {
		return nil, fmt.Errorf("token exchange returned no access token")
	}

	return &domain.SessionCredential{
		AccessToken:  token,
		RefreshToken: parsed.Get("data.refresh_token").String(),
	}, nil
}
