// Package config loads service configuration from environment variables
// using struct tags, with optional .env file support for local development.
package config
