package config

import "net/url"

// Sanitize returns a copy of the config safe for logging.
// Credentials embedded in the node URL are masked.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Node.URL = redactURL(cfg.Node.URL)
	return &sanitized
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
