// SPDX-License-Identifier: AGPL-3.0-only
package config

// AppVersion is set at build time with -ldflags "-X ...config.AppVersion=v1.2.3".
var AppVersion = "dev"
