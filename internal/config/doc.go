// Package config loads the petdesk configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/petdesk/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. PETDESK_API_URL and PETDESK_LOG_LEVEL override the file
//
// Command-line flags are applied on top by the caller.
//
// # Example
//
//	api_url = "https://pet-manager-api.geia.vip"
//	timeout_seconds = 10
//	page_size = 10
//	credential_backend = "sqlite"   # file, sqlite, redis, memory
//	credential_path = "~/.config/petdesk/credentials.db"
//	log_level = "debug"
//	refresh_seconds = 30
//
// # Path Expansion
//
// credential_path and log_file support a leading "~" and are returned
// absolute.
package config
