package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

type SpotifyAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	TokenCache   string
	// HTTPClient carries token exchanges and API calls when set.
	HTTPClient *http.Client
	// Prompt shows the authorization URL to the user.
	Prompt func(authURL string)
}

// ConnectSpotify returns an authorized client, running the authorization-code
// flow on the redirect URI when no cached token is available.
func ConnectSpotify(ctx context.Context, cfg SpotifyAuth) (*spotify.Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are not set")
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(strings.Fields(cfg.Scope)...),
	)

	tok, err := loadToken(cfg.TokenCache)
	if err != nil {
		log.Debug("No cached Spotify token", "path", cfg.TokenCache, "err", err)

		tok, err = authorize(ctx, auth, cfg)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
		if err := saveToken(cfg.TokenCache, tok); err != nil {
			log.Warn("Failed to cache Spotify token", "path", cfg.TokenCache, "err", err)
		}
	}

	return spotify.New(auth.Client(ctx, tok)), nil
}

func authorize(ctx context.Context, auth *spotifyauth.Authenticator, cfg SpotifyAuth) (*oauth2.Token, error) {
	u, err := url.Parse(cfg.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("redirect uri: %w", err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", u.Host, err)
	}

	state := uuid.NewString()
	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		tok, err := auth.Token(ctx, state, r)
		if err != nil {
			http.Error(w, "Authorization failed", http.StatusForbidden)
		} else {
			fmt.Fprintln(w, "Spotify connected. You can close this window.")
		}
		select {
		case done <- result{tok, err}:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := auth.AuthURL(state)
	if cfg.Prompt != nil {
		cfg.Prompt(authURL)
	} else {
		log.Info("Open this URL to connect Spotify", "url", authURL)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.tok, res.err
	}
}

func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, errors.New("no token cache configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, errors.New("cached token expired")
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		return nil
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
