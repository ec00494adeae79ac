package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuthClient drives the authorization-code flow for one provider.
type OAuthClient struct {
	provider   string
	config     oauth2.Config
	httpClient *http.Client
}

// NewOAuthClient builds an OAuthClient. Non-empty AuthURL/TokenURL in cfg
// override the endpoint, which is how self-hosted instances are reached.
func NewOAuthClient(provider string, cfg Config, endpoint oauth2.Endpoint, httpClient *http.Client) OAuthClient {
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return OAuthClient{
		provider: provider,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		httpClient: httpClient,
	}
}

func (c OAuthClient) withRedirect(redirectURL string) *oauth2.Config {
	cfg := c.config
	cfg.RedirectURL = redirectURL
	return &cfg
}

// AuthCodeURL embeds state, scopes and redirect URL.
func (c OAuthClient) AuthCodeURL(state, redirectURL string) string {
	return c.withRedirect(redirectURL).AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c OAuthClient) Exchange(ctx context.Context, code, redirectURL string) (Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.withRedirect(redirectURL).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return Token{}, fmt.Errorf("%w: %s: %s", ErrAuthExchangeFailed, c.provider, retrieveDetail(re))
		}
		return Token{}, fmt.Errorf("%w: %s: %v", ErrAuthExchangeFailed, c.provider, err)
	}
	return fromOAuth2(tok), nil
}

// Refresh redeems refreshToken. A rejected grant maps to ErrRefreshRevoked.
func (c OAuthClient) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	if refreshToken == "" {
		return Token{}, fmt.Errorf("%w: %s: no refresh token stored", ErrRefreshRevoked, c.provider)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	// An empty access token is never valid, which forces the refresh grant.
	tok, err := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if !errors.As(err, &re) {
			return Token{}, ClassifyTransport(c.provider, "refresh", err)
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		switch {
		case re.ErrorCode == "invalid_grant", status == http.StatusUnauthorized:
			return Token{}, fmt.Errorf("%w: %s: %s", ErrRefreshRevoked, c.provider, retrieveDetail(re))
		case status == 0:
			return Token{}, ClassifyTransport(c.provider, "refresh", err)
		default:
			return Token{}, Classify(c.provider, "refresh", status, retrieveDetail(re))
		}
	}

	out := fromOAuth2(tok)
	if out.RefreshToken == "" {
		// Providers that do not rotate refresh tokens omit it from the response.
		out.RefreshToken = refreshToken
	}
	return out, nil
}

func fromOAuth2(tok *oauth2.Token) Token {
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

func retrieveDetail(re *oauth2.RetrieveError) string {
	if re.ErrorCode != "" {
		if re.ErrorDescription != "" {
			return re.ErrorCode + ": " + re.ErrorDescription
		}
		return re.ErrorCode
	}
	return string(re.Body)
}
