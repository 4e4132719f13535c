// Package config provides the crawl policy and the settings that surround it:
// defaults, validation, and the optional YAML file with per-site overrides.
package config
