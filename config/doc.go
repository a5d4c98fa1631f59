// Package config loads control relay settings from the environment.
//
// The relay has no config files and no server flags. Every setting is an
// environment variable with a default, so a bare `controlrelay` listens on
// port 3000. A .env file in the working directory is loaded by main before
// Load is called.
//
// Variables:
//   - PORT, HOST: listening address (default :3000)
//   - STATIC_DIR: browser client assets; a missing directory disables static serving (default "public")
//   - LOG_LEVEL, LOG_FORMAT: zerolog level and "console" or "json" output
//   - MAX_MESSAGE_SIZE, SEND_BUFFER: per-connection limits
//   - ALLOWED_ORIGINS: comma separated WebSocket origins, empty allows all
//   - NGROK_ENABLED, NGROK_AUTHTOKEN (or NGROK_AUTH_TOKEN), NGROK_DOMAIN
//   - RELAY_URL: base URL the MCP and observe clients talk to
package config
