package handler

import (
	"fmt"

	"github.com/himanshu810e/firebase-tools/internal/matcher"
	"github.com/himanshu810e/firebase-tools/internal/proxy"
	"github.com/himanshu810e/firebase-tools/internal/serving"
)

type rewriteKind int

const (
	rewritePath rewriteKind = iota
	rewriteService
	rewriteDynamicLinks
)

type trailingBehavior int

const (
	trailingKeep trailingBehavior = iota
	trailingAdd
	trailingRemove
)

type redirectRule struct {
	matcher    matcher.Matcher
	pattern    string
	statusCode int
	location   string
}

type headerRule struct {
	matcher matcher.Matcher
	headers map[string]string
}

type rewriteRule struct {
	matcher   matcher.Matcher
	kind      rewriteKind
	path      string
	serviceID string
	target    *proxy.Target
}

// Site is a serving configuration compiled for the preview request path:
// matchers are prebuilt and run/function rewrites are bound to their
// emulated targets. Sites are immutable; reloads build a new one and swap.
type Site struct {
	redirects []redirectRule
	headers   []headerRule
	rewrites  []rewriteRule
	cleanURLs bool
	trailing  trailingBehavior
}

// BuildSite compiles a serving configuration against the configured preview
// targets. A run or function rewrite without a matching target still
// compiles; the handler answers 502 for it until an emulator is configured.
func BuildSite(cfg *serving.Config, targets map[string]*proxy.Target) (*Site, error) {
	site := &Site{}

	for _, rd := range cfg.Redirects {
		m, err := matcher.ForRule(rd.Glob, rd.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling redirect: %w", err)
		}
		site.redirects = append(site.redirects, redirectRule{
			matcher:    m,
			pattern:    m.Pattern(),
			statusCode: rd.StatusCode,
			location:   rd.Location,
		})
	}

	for _, hd := range cfg.Headers {
		m, err := matcher.ForRule(hd.Glob, hd.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling header rule: %w", err)
		}
		site.headers = append(site.headers, headerRule{matcher: m, headers: hd.Headers})
	}

	for _, rw := range cfg.Rewrites {
		m, err := matcher.ForRule(rw.Glob, rw.Regex)
		if err != nil {
			return nil, fmt.Errorf("compiling rewrite: %w", err)
		}

		rule := rewriteRule{matcher: m}
		switch {
		case rw.Path != "":
			rule.kind = rewritePath
			rule.path = rw.Path
		case rw.DynamicLinks:
			rule.kind = rewriteDynamicLinks
		case rw.Run != nil:
			rule.kind = rewriteService
			rule.serviceID = rw.Run.ServiceID
			rule.target = targets[rw.Run.ServiceID]
		case rw.Function != "":
			rule.kind = rewriteService
			rule.serviceID = rw.Function
			rule.target = targets[rw.Function]
		default:
			return nil, fmt.Errorf("rewrite %q has no target", m.Pattern())
		}

		site.rewrites = append(site.rewrites, rule)
	}

	if cfg.CleanURLs != nil {
		site.cleanURLs = *cfg.CleanURLs
	}

	switch cfg.TrailingSlashBehavior {
	case serving.TrailingSlashAdd:
		site.trailing = trailingAdd
	case serving.TrailingSlashRemove:
		site.trailing = trailingRemove
	default:
		site.trailing = trailingKeep
	}

	return site, nil
}
