package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"playlist-importer/internal/shared"
)

const tokenFile = "token.json"

var scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Authenticator runs the PKCE authorization flow and caches the resulting
// token so later runs skip the browser round trip.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	redirectURL string
	cacheDir    string
	log         *slog.Logger
}

// NewAuthenticator configures the PKCE flow. No client secret is involved:
// the client ID plus the code challenge is enough for a native app.
func NewAuthenticator(clientID, redirectURL, cacheDir string, log *slog.Logger) *Authenticator {
	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithScopes(scopes...),
		),
		redirectURL: redirectURL,
		cacheDir:    cacheDir,
		log:         log,
	}
}

// Token returns a usable OAuth token, from cache when possible, otherwise
// via the interactive browser flow.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	if tok, err := a.loadCached(); err == nil {
		a.log.Info("using cached token", "path", a.tokenPath())
		return tok, nil
	}
	return a.interactive(ctx)
}

// HTTPClient wraps the token in an auto-refreshing HTTP client with the
// throttle-classifying transport underneath.
func (a *Authenticator) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	base := &http.Client{Transport: newThrottleTransport(nil)}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := a.auth.Client(ctx, tok)
	return client
}

func (a *Authenticator) tokenPath() string {
	return filepath.Join(a.cacheDir, tokenFile)
}

func (a *Authenticator) loadCached() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath())
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("cached token expired with no refresh token")
	}
	return &tok, nil
}

// SaveToken persists the token for the next run. Refreshed tokens should be
// re-saved at exit so the refresh token stays current.
func (a *Authenticator) SaveToken(tok *oauth2.Token) error {
	if err := shared.CreateDirIfNotExists(a.cacheDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	// The token grants playlist write access, keep it private.
	return os.WriteFile(a.tokenPath(), data, 0o600)
}

// interactive starts a one-shot callback server on the redirect URL, prints
// the authorization URL and waits for the browser round trip.
func (a *Authenticator) interactive(ctx context.Context) (*oauth2.Token, error) {
	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()

	redirect, err := parseRedirect(a.redirectURL)
	if err != nil {
		return nil, err
	}

	type result struct {
		tok *oauth2.Token
		err error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.path, func(w http.ResponseWriter, r *http.Request) {
		tok, err := a.auth.Token(r.Context(), state, r, oauth2.VerifierOption(verifier))
		if err != nil {
			http.Error(w, "Authorization failed.", http.StatusForbidden)
			results <- result{err: err}
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this tab.")
		results <- result{tok: tok}
	})

	srv := &http.Server{Addr: redirect.addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			results <- result{err: err}
		}
	}()
	defer srv.Close()

	authURL := a.auth.AuthURL(state, oauth2.S256ChallengeOption(verifier))
	shared.ColorPrompt.Println("Open this URL in your browser to authorize:")
	fmt.Println(authURL)

	select {
	case res := <-results:
		if res.err != nil {
			return nil, fmt.Errorf("authorization: %w", res.err)
		}
		if err := a.SaveToken(res.tok); err != nil {
			a.log.Warn("token cache write failed", "error", err)
		}
		a.log.Info("authorization complete")
		return res.tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type redirectParts struct {
	addr string
	path string
}

func parseRedirect(raw string) (redirectParts, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return redirectParts{}, fmt.Errorf("invalid redirect URL %q: %w", raw, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return redirectParts{addr: u.Host, path: path}, nil
}
