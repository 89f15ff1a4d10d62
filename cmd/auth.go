package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// AuthLogin runs the OAuth2 authorization code flow and caches the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.provider()
	if err != nil {
		return err
	}

	r.logger.Info("starting OAuth2 authorization")
	err = provider.Authorize(ctx, func(authURL string) {
		r.writePlain("Open the following URL in your browser to authorize:\n\n")
		r.writePlain("  %s\n\n", authURL)
		r.writePlain("Waiting for the callback...\n")
	})
	if err != nil {
		return err
	}

	r.logger.Info("authentication successful", "token_path", r.config.Credentials.YouTube.TokenPath)
	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports the cached token state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.provider()
	if err != nil {
		return err
	}

	tok, err := provider.Token()
	if err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'ytup auth login' to authorize.\n")
		return nil
	}

	if tok.Valid() {
		r.writePlain("✓ Authenticated\n")
		if !tok.Expiry.IsZero() {
			r.writePlain("Token expires: %s\n", tok.Expiry.Format(time.RFC1123))
		}
		return nil
	}

	if tok.RefreshToken != "" {
		r.writePlain("✓ Token expired, refresh token available\n")
		return nil
	}

	r.writePlain("✗ Token expired with no refresh token\n")
	r.writePlain("Run 'ytup auth login' to re-authorize.\n")
	return nil
}
