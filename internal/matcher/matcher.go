package matcher

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides whether a request path is covered by a rule.
type Matcher interface {
	Matches(path string) bool
	Pattern() string
}

type globMatcher struct {
	pattern string
}

func (g *globMatcher) Matches(path string) bool {
	ok, err := doublestar.Match(g.pattern, path)
	if err != nil {
		return false
	}

	return ok
}

func (g *globMatcher) Pattern() string {
	return g.pattern
}

// NewGlob creates a matcher for an extended glob pattern ("**" spans
// path separators).
func NewGlob(pattern string) (Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("malformed glob pattern %q", pattern)
	}

	return &globMatcher{pattern: pattern}, nil
}

type regexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func (r *regexMatcher) Matches(path string) bool {
	return r.re.MatchString(path)
}

func (r *regexMatcher) Pattern() string {
	return r.pattern
}

// NewRegex creates a matcher for an RE2 expression.
func NewRegex(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling matcher regex %q: %w", expr, err)
	}

	return &regexMatcher{pattern: expr, re: re}, nil
}

// ForRule builds the matcher for a rule carrying exactly one of a glob or a
// regex pattern.
func ForRule(glob, regex string) (Matcher, error) {
	switch {
	case glob != "" && regex != "":
		return nil, fmt.Errorf("rule has both glob %q and regex %q", glob, regex)
	case glob != "":
		return NewGlob(glob)
	case regex != "":
		return NewRegex(regex)
	default:
		return nil, fmt.Errorf("rule has neither glob nor regex")
	}
}
