// Package config provides paths, settings and address validation for realm-ctl.
//
// # Paths
//
// Paths locates every file realm-ctl touches:
//
//	/etc/realm/config.toml     realm configuration, holds the forwarding rules
//	/etc/realm/realm-ctl.toml  realm-ctl settings
//	/etc/realm/realm-ctl.env   optional KEY=VALUE overrides
//	/usr/local/bin/realm       proxy binary
//	/etc/init.d/realm          OpenRC init script
//	/var/log/realm-ctl/        event log
//
// WithRoot re-roots all of them under a staging prefix using
// filepath-securejoin, so symlinks inside the prefix cannot escape it.
//
// # Settings
//
// Settings are decoded from TOML; unknown keys are rejected. Values from the
// env file and then from REALM_CTL_* environment variables override the file:
//
//	fallback_version = "v2.7.0"
//	mirror = "https://github.com/zhboner/realm/releases/download"
//	packages = ["curl", "tar"]
//
// # Addresses
//
// ValidateListen, ValidateRemoteHost and ValidatePort check user input for
// forwarding rules. JoinRemote brackets IPv6 literals.
package config
