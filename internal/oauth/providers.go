// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

type exchangeStyle int

const (
	// exchangeStandard posts a form to the token endpoint through x/oauth2.
	exchangeStandard exchangeStyle = iota
	// exchangeQuery passes the code and client credentials as GET query parameters.
	exchangeQuery
	// exchangeTikTok posts client_key instead of client_id and nests the result under data.
	exchangeTikTok
)

// Provider describes one platform's OAuth application.
type Provider struct {
	Platform    helpers.Platform
	Config      oauth2.Config
	UserInfoURL string

	PKCE       bool
	AuthParams map[string]string
	exchange   exchangeStyle
}

func (p *Provider) Configured() bool {
	return p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// DefaultProviders returns a provider for every known platform, with
// credentials and redirect URIs taken from cfg.
func DefaultProviders(cfg *config.AppConfig) []*Provider {
	providers := []*Provider{
		{
			Platform: helpers.Instagram,
			Config: oauth2.Config{
				Endpoint: oauth2.Endpoint{
					AuthURL:   "https://api.instagram.com/oauth/authorize",
					TokenURL:  "https://api.instagram.com/oauth/access_token",
					AuthStyle: oauth2.AuthStyleInParams,
				},
				Scopes: []string{"user_profile,user_media"},
			},
			UserInfoURL: "https://graph.instagram.com/me",
		},
		{
			Platform: helpers.Twitter,
			Config: oauth2.Config{
				Endpoint: oauth2.Endpoint{
					AuthURL:   "https://twitter.com/i/oauth2/authorize",
					TokenURL:  "https://api.twitter.com/2/oauth2/token",
					AuthStyle: oauth2.AuthStyleInHeader,
				},
				Scopes: []string{"tweet.read", "users.read", "offline.access"},
			},
			UserInfoURL: "https://api.twitter.com/2/users/me",
			PKCE:        true,
		},
		{
			Platform: helpers.Facebook,
			Config: oauth2.Config{
				Endpoint: facebook.Endpoint,
				Scopes:   []string{"pages_read_engagement,pages_read_user_content"},
			},
			UserInfoURL: "https://graph.facebook.com/me",
			exchange:    exchangeQuery,
		},
		{
			Platform: helpers.TikTok,
			Config: oauth2.Config{
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://www.tiktok.com/auth/authorize/",
					TokenURL: "https://open-api.tiktok.com/oauth/access_token/",
				},
				Scopes: []string{"user.info.basic,video.list"},
			},
			UserInfoURL: "https://open-api.tiktok.com/user/info/",
			exchange:    exchangeTikTok,
		},
		{
			Platform: helpers.YouTube,
			Config: oauth2.Config{
				Endpoint: google.Endpoint,
				Scopes:   []string{youtube.YoutubeReadonlyScope, "https://www.googleapis.com/auth/userinfo.profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			AuthParams:  map[string]string{"access_type": "offline", "prompt": "consent"},
		},
	}

	for _, p := range providers {
		creds := cfg.Platforms[p.Platform]
		p.Config.ClientID = creds.ClientID
		p.Config.ClientSecret = creds.ClientSecret
		p.Config.RedirectURL = cfg.RedirectURL(p.Platform)
		if p.Platform == helpers.TikTok {
			p.AuthParams = map[string]string{"client_key": creds.ClientID}
		}
	}
	return providers
}
