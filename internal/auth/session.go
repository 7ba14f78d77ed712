// Package auth owns the session lifecycle for the management API: version
// detection, login and logout across the two backend authentication
// protocols, and the headers every authenticated request must carry.
package auth

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidewater-io/smapi/internal/constants"
	"github.com/tidewater-io/smapi/pkg/smapi"
)

// Config carries the credentials and transport settings the session manager
// needs for its own HTTP calls (version probe, login, logout).
type Config struct {
	Username string
	Password string

	// AccessToken optionally seeds an established V3 bearer session.
	AccessToken string

	Timeout   time.Duration
	TLSConfig *tls.Config
	UserAgent string
}

// Manager guards the single mutable session of a client instance. All state
// transitions happen under one mutex so concurrent callers never trigger
// duplicate logins or observe a half-updated token.
type Manager struct {
	mu         sync.Mutex
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client

	version      smapi.APIVersion
	token        string
	refreshToken string
}

// NewManager creates a session manager for the given endpoint.
func NewManager(baseURL string, config *Config) *Manager {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if config.TLSConfig != nil {
		httpClient.Transport = &http.Transport{TLSClientConfig: config.TLSConfig}
	}

	manager := &Manager{
		baseURL:    baseURL,
		username:   config.Username,
		password:   config.Password,
		userAgent:  config.UserAgent,
		httpClient: httpClient,
	}

	if config.AccessToken != "" {
		manager.version = smapi.APIVersionV3
		manager.token = config.AccessToken
	}

	return manager
}

// EnsureSession guarantees a valid token exists, logging in if absent. It is
// idempotent: an authenticated manager returns its version without I/O.
func (m *Manager) EnsureSession(ctx context.Context) (smapi.APIVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.version != smapi.APIVersionUnknown {
		return m.version, nil
	}

	version, err := m.detectVersion(ctx)
	if err != nil {
		return smapi.APIVersionUnknown, err
	}

	switch version {
	case smapi.APIVersionV2:
		err = m.loginV2(ctx)
	case smapi.APIVersionV3:
		err = m.loginV3(ctx)
	default:
		return smapi.APIVersionUnknown, smapi.ErrUnknownAPIVersion
	}

	if err != nil {
		return smapi.APIVersionUnknown, err
	}

	m.version = version

	return version, nil
}

// AuthHeaders returns the authentication headers for the current state. It
// never performs I/O.
func (m *Manager) AuthHeaders() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return nil, smapi.ErrNotAuthenticated
	}

	switch m.version {
	case smapi.APIVersionV2:
		credentials := base64.StdEncoding.EncodeToString([]byte(m.username + ":" + m.token))

		return map[string]string{"Authorization": "Basic " + credentials}, nil
	case smapi.APIVersionV3:
		return map[string]string{"Authorization": "Bearer " + m.token}, nil
	default:
		return nil, smapi.ErrUnknownAPIVersion
	}
}

// Invalidate clears the session so the next EnsureSession re-detects and
// re-authenticates. Called when the dispatcher observes a 401.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.version = smapi.APIVersionUnknown
	m.token = ""
	m.refreshToken = ""
}

// Version returns the currently detected API version, if any.
func (m *Manager) Version() smapi.APIVersion {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.version
}

// Logout invalidates the server-side token and clears local state. Local
// state is cleared even when the server call fails, so the next call starts
// from a clean login.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return nil
	}

	var err error

	switch m.version {
	case smapi.APIVersionV2:
		err = m.logoutV2(ctx)
	case smapi.APIVersionV3:
		err = m.logoutV3(ctx)
	}

	m.version = smapi.APIVersionUnknown
	m.token = ""
	m.refreshToken = ""

	return err
}

// versionResponse is the wire shape of the unauthenticated version endpoint.
type versionResponse struct {
	Version string `json:"version"`
	Major   int    `json:"major"`
}

// detectVersion classifies the backend. Callers hold the lock.
func (m *Manager) detectVersion(ctx context.Context) (smapi.APIVersion, error) {
	body, err := m.sessionCall(ctx, http.MethodGet, constants.APIPathVersion, nil, nil, smapi.ErrorKindOperationFailed)
	if err != nil {
		return smapi.APIVersionUnknown, fmt.Errorf("detecting API version: %w", err)
	}

	var version versionResponse

	err = json.Unmarshal(body, &version)
	if err != nil {
		return smapi.APIVersionUnknown, fmt.Errorf("parsing version response: %w", err)
	}

	if version.Major >= 3 {
		return smapi.APIVersionV3, nil
	}

	return smapi.APIVersionV2, nil
}

// loginV2 performs the basic-auth login call and stores the returned session
// token. Subsequent requests authenticate with Basic(username, token).
func (m *Manager) loginV2(ctx context.Context) error {
	basicAuth := func(req *http.Request) {
		req.SetBasicAuth(m.username, m.password)
	}

	body, err := m.sessionCall(ctx, http.MethodGet, constants.APIPathLoginV2, nil, basicAuth, smapi.ErrorKindAuthenticationFailed)
	if err != nil {
		return fmt.Errorf("logging in (v2): %w", err)
	}

	var loginResp struct {
		Token string `json:"token"`
	}

	err = json.Unmarshal(body, &loginResp)
	if err != nil {
		return fmt.Errorf("parsing v2 login response: %w", err)
	}

	if loginResp.Token == "" {
		return &smapi.Error{Kind: smapi.ErrorKindAuthenticationFailed, Message: "v2 login returned no token"}
	}

	m.token = loginResp.Token

	return nil
}

// loginV3 posts the credentials to the login endpoint and stores the access
// and refresh tokens.
func (m *Manager) loginV3(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": m.username,
		"password": m.password,
	})
	if err != nil {
		return fmt.Errorf("encoding v3 login request: %w", err)
	}

	body, err := m.sessionCall(ctx, http.MethodPost, constants.APIPathLoginV3, payload, nil, smapi.ErrorKindAuthenticationFailed)
	if err != nil {
		return fmt.Errorf("logging in (v3): %w", err)
	}

	var loginResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	err = json.Unmarshal(body, &loginResp)
	if err != nil {
		return fmt.Errorf("parsing v3 login response: %w", err)
	}

	if loginResp.AccessToken == "" {
		return &smapi.Error{Kind: smapi.ErrorKindAuthenticationFailed, Message: "v3 login returned no access token"}
	}

	m.token = loginResp.AccessToken
	m.refreshToken = loginResp.RefreshToken

	return nil
}

// logoutV2 hits the logout endpoint with the current session credentials.
func (m *Manager) logoutV2(ctx context.Context) error {
	credentials := base64.StdEncoding.EncodeToString([]byte(m.username + ":" + m.token))
	withAuth := func(req *http.Request) {
		req.Header.Set("Authorization", "Basic "+credentials)
	}

	_, err := m.sessionCall(ctx, http.MethodGet, constants.APIPathLogoutV2, nil, withAuth, smapi.ErrorKindAuthenticationFailed)
	if err != nil {
		return fmt.Errorf("logging out (v2): %w", err)
	}

	return nil
}

// logoutV3 posts the refresh token so the server revokes the whole session.
func (m *Manager) logoutV3(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"refresh_token": m.refreshToken,
	})
	if err != nil {
		return fmt.Errorf("encoding v3 logout request: %w", err)
	}

	withAuth := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	_, err = m.sessionCall(ctx, http.MethodPost, constants.APIPathLogoutV3, payload, withAuth, smapi.ErrorKindAuthenticationFailed)
	if err != nil {
		return fmt.Errorf("logging out (v3): %w", err)
	}

	return nil
}

// sessionCall issues one HTTP call for the session lifecycle. Connectivity
// failures surface as TransportFailed; non-2xx responses surface with the
// caller-supplied error kind and the raw server payload.
func (m *Manager) sessionCall(ctx context.Context, method, path string, body []byte, decorate func(*http.Request), failKind smapi.ErrorKind) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	if decorate != nil {
		decorate(req)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &smapi.Error{Kind: smapi.ErrorKindTransportFailed, Message: err.Error()}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &smapi.Error{Kind: smapi.ErrorKindTransportFailed, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, smapi.NewError(failKind, resp.StatusCode, respBody)
	}

	return respBody, nil
}
