// Package config defines the mixrelay-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: struct-tag validation plus address and path checks
//   - sanitize.go: masking of credentials before logging
//
// Configuration is loaded via internal/infra/confloader from defaults, a
// YAML file, environment variables and flags.
package config
