// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (MIXRELAY_ prefix, "__" between sections)
//  3. YAML configuration file
//  4. Defaults already present in the target struct
//
// Configuration is read once at startup; the relay does not reload it.
package confloader
