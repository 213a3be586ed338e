// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the user-authored hosting
// configuration (rewrites, redirects, headers, serving behavior) together
// with tool settings for the deploy pipeline and the local preview server.
package config
