// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Partner API endpoint, timeout and pacing
//   - CredentialsConfig: Where the API key slot lives
//   - LoggingConfig, UIConfig: Log sink and terminal UI settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command line flags (applied by the CLI after Load)
//   - Environment variables (PEAKABOT_*)
//   - .env in the working directory
//   - ~/.peakabot/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.Timeout()
package config
