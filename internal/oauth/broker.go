// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Used when a provider omits expires_in.
const defaultTokenLifetime = time.Hour

// Tokens is the normalized result of a code exchange.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Scope        string
	Expiry       time.Time
}

type UserInfo struct {
	ID       string
	Username string
}

type Broker struct {
	providers map[helpers.Platform]*Provider
	client    *common.Client
	states    StateStore
	now       func() time.Time
}

func NewBroker(providers []*Provider, client *common.Client, states StateStore) *Broker {
	b := &Broker{
		providers: make(map[helpers.Platform]*Provider, len(providers)),
		client:    client,
		states:    states,
		now:       time.Now,
	}
	for _, p := range providers {
		b.providers[p.Platform] = p
	}
	return b
}

func (b *Broker) provider(platform string) (*Provider, error) {
	p, ok := helpers.ParsePlatform(platform)
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	prov, ok := b.providers[p]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	if !prov.Configured() {
		return nil, ErrMissingCredentials
	}
	return prov, nil
}

func (b *Broker) IsPlatformConfigured(platform string) bool {
	_, err := b.provider(platform)
	return err == nil
}

// ConfiguredPlatforms lists the platforms a user can connect, in display order.
func (b *Broker) ConfiguredPlatforms() []helpers.Platform {
	var out []helpers.Platform
	for _, info := range helpers.AvailablePlatforms {
		if b.IsPlatformConfigured(string(info.Platform)) {
			out = append(out, info.Platform)
		}
	}
	return out
}

// BuildAuthorizationURL starts a connect attempt for userID. The state and,
// for PKCE providers, the code verifier are stored until the callback.
func (b *Broker) BuildAuthorizationURL(ctx context.Context, platform string, userID uuid.UUID) (string, error) {
	prov, err := b.provider(platform)
	if err != nil {
		return "", err
	}

	state := oauth2.GenerateVerifier()
	pending := PendingAuth{Platform: prov.Platform, UserID: userID, CreatedAt: b.now()}

	var opts []oauth2.AuthCodeOption
	if prov.PKCE {
		pending.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(pending.Verifier))
	}
	for k, v := range prov.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	if err := b.states.Save(ctx, state, pending, StateTTL); err != nil {
		return "", err
	}
	return prov.Config.AuthCodeURL(state, opts...), nil
}

// ResolveState redeems a callback's state. It fails with ErrInvalidState when
// the state is unknown, expired, already used or issued for another platform.
func (b *Broker) ResolveState(ctx context.Context, platform, state string) (PendingAuth, error) {
	if state == "" {
		return PendingAuth{}, ErrInvalidState
	}
	pending, err := b.states.Take(ctx, state)
	if err != nil {
		return PendingAuth{}, err
	}
	if string(pending.Platform) != platform {
		return PendingAuth{}, ErrInvalidState
	}
	return pending, nil
}

// ExchangeCodeForTokens trades an authorization code for tokens. On error
// the returned Tokens is always nil.
func (b *Broker) ExchangeCodeForTokens(ctx context.Context, platform, code, verifier string) (*Tokens, error) {
	prov, err := b.provider(platform)
	if err != nil {
		return nil, err
	}

	var tokens *Tokens
	switch prov.exchange {
	case exchangeQuery:
		tokens, err = b.exchangeQuery(ctx, prov, code)
	case exchangeTikTok:
		tokens, err = b.exchangeTikTok(ctx, prov, code)
	default:
		tokens, err = b.exchangeStandard(ctx, prov, code, verifier)
	}
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	if tokens.ExpiresIn <= 0 && tokens.Expiry.IsZero() {
		tokens.ExpiresIn = int64(defaultTokenLifetime / time.Second)
	}
	if tokens.Expiry.IsZero() {
		tokens.Expiry = b.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	return tokens, nil
}

func (b *Broker) exchangeStandard(ctx context.Context, prov *Provider, code, verifier string) (*Tokens, error) {
	var opts []oauth2.AuthCodeOption
	if prov.PKCE {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client.HTTPClient)
	token, err := prov.Config.Exchange(ctx, code, opts...)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &TokenExchangeError{
				Platform:   prov.Platform,
				StatusCode: rerr.Response.StatusCode,
				Body:       string(rerr.Body),
				Err:        err,
			}
		}
		return nil, &TokenExchangeError{Platform: prov.Platform, Err: common.ScrubURLError(err)}
	}

	scope, _ := token.Extra("scope").(string)
	return &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		Scope:        scope,
		Expiry:       token.Expiry,
	}, nil
}

type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    common.FlexInt `json:"expires_in"`
	Scope        string         `json:"scope"`
}

func (r tokenResponse) tokens() *Tokens {
	return &Tokens{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn.Int64(),
		Scope:        r.Scope,
	}
}

func (b *Broker) exchangeQuery(ctx context.Context, prov *Provider, code string) (*Tokens, error) {
	q := url.Values{
		"client_id":     {prov.Config.ClientID},
		"client_secret": {prov.Config.ClientSecret},
		"redirect_uri":  {prov.Config.RedirectURL},
		"code":          {code},
	}

	var res tokenResponse
	if err := b.client.GetJSON(ctx, prov.Platform, "exchangeCode", prov.Config.Endpoint.TokenURL+"?"+q.Encode(), nil, &res); err != nil {
		return nil, exchangeError(prov.Platform, err)
	}
	return res.tokens(), nil
}

func (b *Broker) exchangeTikTok(ctx context.Context, prov *Provider, code string) (*Tokens, error) {
	form := url.Values{
		"client_key":    {prov.Config.ClientID},
		"client_secret": {prov.Config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {prov.Config.RedirectURL},
	}

	var res struct {
		tokenResponse
		Data tokenResponse `json:"data"`
	}
	if err := b.client.PostForm(ctx, prov.Platform, "exchangeCode", prov.Config.Endpoint.TokenURL, form, &res); err != nil {
		return nil, exchangeError(prov.Platform, err)
	}
	if res.Data.AccessToken != "" {
		return res.Data.tokens(), nil
	}
	return res.tokenResponse.tokens(), nil
}

func exchangeError(platform helpers.Platform, err error) error {
	var ue *common.UpstreamError
	if errors.As(err, &ue) {
		return &TokenExchangeError{Platform: platform, StatusCode: ue.StatusCode, Body: ue.Body, Err: ue.Err}
	}
	return &TokenExchangeError{Platform: platform, Err: common.ScrubURLError(err)}
}
