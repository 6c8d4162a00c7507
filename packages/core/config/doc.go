// Package config handles configuration loading and management for hitclient.
//
// It provides functionality for:
//   - Loading configuration from .hitclient.yaml, .hitclient.yml or JSON files
//   - Default configuration values
//   - Converting the file settings into client defaults and adapter options
package config
