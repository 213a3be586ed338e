// Package resolver implements the endpoint lookup policy for hosting
// rewrites: want before have before existing, with a fixed default-region
// tie-break for ambiguous function ids.
package resolver
