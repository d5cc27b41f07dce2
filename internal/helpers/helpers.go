// SPDX-License-Identifier: AGPL-3.0-only
package helpers

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Platform string

const (
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	TikTok    Platform = "tiktok"
	Facebook  Platform = "facebook"
	YouTube   Platform = "youtube"
)

type PlatformInfo struct {
	Platform Platform
	Name     string
	Color    string
}

var AvailablePlatforms = []PlatformInfo{
	{Platform: Instagram, Name: "Instagram", Color: "#ff0076"},
	{Platform: Twitter, Name: "Twitter", Color: "#1d9bf0"},
	{Platform: TikTok, Name: "TikTok", Color: "#fe2c55"},
	{Platform: Facebook, Name: "Facebook", Color: "#1877f2"},
	{Platform: YouTube, Name: "YouTube", Color: "#ff0033"},
}

func ParsePlatform(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, info := range AvailablePlatforms {
		if info.Platform == p {
			return p, true
		}
	}
	return "", false
}

func (p Platform) String() string {
	return string(p)
}

func (p Platform) DisplayName() string {
	for _, info := range AvailablePlatforms {
		if info.Platform == p {
			return info.Name
		}
	}
	return string(p)
}

// EnvPrefix is the prefix of the platform's credential variables, e.g. TIKTOK_CLIENT_ID.
func (p Platform) EnvPrefix() string {
	return strings.ToUpper(string(p))
}

func ConvAccountToURL(platform Platform, username string) (string, error) {
	handle := strings.TrimPrefix(username, "@")
	switch platform {
	case Instagram:
		return "https://instagram.com/" + handle, nil
	case Twitter:
		return "https://x.com/" + handle, nil
	case TikTok:
		return "https://tiktok.com/@" + handle, nil
	case Facebook:
		return "https://facebook.com/" + handle, nil
	case YouTube:
		return "https://youtube.com/@" + handle, nil
	default:
		return "", fmt.Errorf("platform %v not recognized", platform)
	}
}

func ConvPostToURL(platform Platform, author, postID string) (string, error) {
	handle := strings.TrimPrefix(author, "@")
	switch platform {
	case Instagram:
		return "https://instagram.com/p/" + postID, nil
	case Twitter:
		return "https://x.com/" + handle + "/status/" + postID, nil
	case TikTok:
		return "https://www.tiktok.com/@" + handle + "/video/" + postID, nil
	case Facebook:
		return "https://facebook.com/" + postID, nil
	case YouTube:
		return "https://youtube.com/watch?v=" + postID, nil
	default:
		return "", fmt.Errorf("platform %v not recognized", platform)
	}
}

func ClampToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// Capitalize upper-cases the first rune only.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
