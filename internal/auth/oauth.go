package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrDomainNotAllowed is returned when a Google account authenticates
// successfully but its email is outside the institution's domain. The
// handler maps this to a denied redirect rather than a server error.
var ErrDomainNotAllowed = errors.New("auth: email domain not allowed")

// googleUserinfoURL is Google's OpenID Connect userinfo endpoint. It
// returns the profile for the account the access token belongs to.
const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleUser is the portion of the userinfo response we care about.
// Google returns more fields — we only unmarshal what we need.
type GoogleUser struct {
	Sub     string `json:"sub"`     // Google's stable account ID
	Name    string `json:"name"`    // display name
	Email   string `json:"email"`   // primary email
	Picture string `json:"picture"` // avatar URL
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization
// Code flow.
//
// The code-for-token exchange happens server-to-server using the client
// secret; the access token never reaches the browser. Only accounts whose
// email ends in the configured domain are accepted.
type GoogleProvider struct {
	config        *oauth2.Config
	allowedDomain string // e.g. "anu.edu.in"; empty disables the check
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// Credentials come from a Google Cloud OAuth client (type "Web
// application"); callbackURL must exactly match one of its authorized
// redirect URIs, e.g. "http://localhost:8080/auth/google/callback".
//
// allowedDomain restricts sign-in to institutional accounts: an account
// authenticates only if its email ends in "@"+allowedDomain.
func NewGoogleProvider(clientID, clientSecret, callbackURL, allowedDomain string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		allowedDomain: allowedDomain,
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback handler verifies the returned state matches, which blocks CSRF
// attempts to complete an OAuth flow the user never started.
//
// "select_account" forces the account chooser so users with both personal
// and campus Google accounts can pick the right one.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google user profile and enforces the domain restriction.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Call the userinfo endpoint with the token
//  3. Reject accounts outside the allowed email domain
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	if !p.EmailAllowed(gUser.Email) {
		return nil, fmt.Errorf("auth: %s: %w", gUser.Email, ErrDomainNotAllowed)
	}

	return &gUser, nil
}

// EmailAllowed reports whether the email belongs to the allowed domain.
// An empty configured domain allows every account (useful in development).
func (p *GoogleProvider) EmailAllowed(email string) bool {
	if p.allowedDomain == "" {
		return true
	}
	return strings.HasSuffix(email, "@"+p.allowedDomain)
}
