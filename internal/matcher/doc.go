// Package matcher implements the two mutually exclusive path-matching
// strategies hosting rules support:
//
//   - Glob: extended glob patterns where "**" spans path separators
//   - Regex: RE2 expressions matched anywhere in the path
//
// The preview server and configuration validation share these matchers.
package matcher
