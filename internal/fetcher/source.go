// SPDX-License-Identifier: AGPL-3.0-only
package fetcher

import (
	"context"
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/fetcher/sources"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"golang.org/x/oauth2"
)

// Source is the capability set every platform adapter implements.
type Source interface {
	Platform() helpers.Platform
	FetchMetrics(ctx context.Context) (common.Metrics, error)
	FetchPosts(ctx context.Context, limit int) ([]common.Post, error)
	RefreshAccessToken(ctx context.Context) (*oauth2.Token, error)
	IsTokenValid(ctx context.Context) bool
}

var (
	_ Source = (*sources.Instagram)(nil)
	_ Source = (*sources.Twitter)(nil)
	_ Source = (*sources.TikTok)(nil)
	_ Source = (*sources.Facebook)(nil)
	_ Source = (*sources.YouTube)(nil)
)

// Factory builds the adapter matching an account's platform.
type Factory interface {
	NewSource(account database.SocialAccount) (Source, error)
}

type ClientFactory struct {
	Client    *common.Client
	Platforms map[helpers.Platform]config.PlatformCredentials
}

func NewFactory(c *common.Client, platforms map[helpers.Platform]config.PlatformCredentials) *ClientFactory {
	return &ClientFactory{Client: c, Platforms: platforms}
}

func (f *ClientFactory) NewSource(account database.SocialAccount) (Source, error) {
	platform, ok := helpers.ParsePlatform(account.Platform)
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q", account.Platform)
	}

	creds := f.Platforms[platform]
	refresh := account.RefreshToken.String

	switch platform {
	case helpers.Instagram:
		return sources.NewInstagram(f.Client, account.AccessToken), nil
	case helpers.Twitter:
		return sources.NewTwitter(f.Client, account.AccessToken), nil
	case helpers.TikTok:
		return sources.NewTikTok(f.Client, account.AccessToken, refresh, creds.ClientID, creds.ClientSecret), nil
	case helpers.Facebook:
		return sources.NewFacebook(f.Client, account.AccessToken, creds.ClientID, creds.ClientSecret), nil
	case helpers.YouTube:
		return sources.NewYouTube(f.Client, account.AccessToken, refresh, creds.ClientID, creds.ClientSecret), nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", account.Platform)
	}
}
