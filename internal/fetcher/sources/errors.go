// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"errors"
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/helpers"
)

var ErrNoRefreshToken = errors.New("no refresh token available")

func errEmptyToken(platform helpers.Platform) error {
	return fmt.Errorf("%s refresh returned no access token", platform)
}
