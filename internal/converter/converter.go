package converter

import (
	"log/slog"

	"github.com/himanshu810e/firebase-tools/config"
	"github.com/himanshu810e/firebase-tools/internal/backend"
	"github.com/himanshu810e/firebase-tools/internal/deploy"
	"github.com/himanshu810e/firebase-tools/internal/resolver"
	"github.com/himanshu810e/firebase-tools/internal/serving"
)

// Converter maps a hosting configuration to the serving configuration the
// hosting API accepts. Conversion is a pure function of its inputs; the only
// side effect is warn-level logging for dropped rewrites.
type Converter struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Converter {
	return &Converter{logger: logger}
}

// Convert resolves cfg against the deploy state. finalize selects the
// resolution policy: during the prepare pass (finalize=false) rewrites to v2
// endpoints that this deploy is about to create are dropped because the
// target is not live yet; during the release pass they resolve to Cloud Run
// service references.
//
// Rewrites naming a function or service that cannot be located anywhere are
// dropped, never turned into errors. Rule order is preserved.
func (c *Converter) Convert(dctx deploy.Context, lookup deploy.Lookup, cfg *config.HostingConfig, finalize bool) *serving.Config {
	res := resolver.New(dctx, lookup)
	out := &serving.Config{}

	for _, rw := range cfg.Rewrites {
		if converted, ok := c.convertRewrite(res, rw, finalize); ok {
			out.Rewrites = append(out.Rewrites, converted)
		}
	}

	for _, rd := range cfg.Redirects {
		out.Redirects = append(out.Redirects, serving.Redirect{
			Glob:       rd.Glob,
			Regex:      rd.Regex,
			StatusCode: rd.Type,
			Location:   rd.Destination,
		})
	}

	for _, rule := range cfg.Headers {
		collapsed := make(map[string]string, len(rule.Headers))
		for _, h := range rule.Headers {
			collapsed[h.Key] = h.Value
		}
		out.Headers = append(out.Headers, serving.Header{
			Glob:    rule.Glob,
			Regex:   rule.Regex,
			Headers: collapsed,
		})
	}

	if cfg.CleanURLs != nil {
		cleanURLs := *cfg.CleanURLs
		out.CleanURLs = &cleanURLs
	}

	if cfg.TrailingSlash != nil {
		if *cfg.TrailingSlash {
			out.TrailingSlashBehavior = serving.TrailingSlashAdd
		} else {
			out.TrailingSlashBehavior = serving.TrailingSlashRemove
		}
	}

	out.AppAssociation = cfg.AppAssociation

	if cfg.I18n != nil {
		out.I18n = &serving.I18nConfig{Root: cfg.I18n.Root}
	}

	return out
}

func (c *Converter) convertRewrite(res *resolver.Resolver, rw config.Rewrite, finalize bool) (serving.Rewrite, bool) {
	converted := serving.Rewrite{Glob: rw.Glob, Regex: rw.Regex}

	switch {
	case rw.Destination != "":
		converted.Path = rw.Destination

	case rw.DynamicLinks:
		converted.DynamicLinks = true

	case rw.Run != nil:
		region := rw.Run.Region
		if region == "" {
			region = resolver.DefaultRegion
		}
		if !finalize && res.RunServicePending(rw.Run.ServiceID, region) {
			c.dropRewrite(rw, "run service is part of this deploy and not live yet")
			return serving.Rewrite{}, false
		}
		converted.Run = &serving.RunRewrite{ServiceID: rw.Run.ServiceID, Region: region}

	case rw.Function != nil:
		ep, src := res.FunctionEndpoint(rw.Function.ID, rw.Function.Region)
		if src == resolver.SourceNone {
			c.dropRewrite(rw, "function not found in any backend")
			return serving.Rewrite{}, false
		}
		if ep.Platform == backend.PlatformGCFv2 {
			if src == resolver.SourceWant && !finalize {
				c.dropRewrite(rw, "v2 function is part of this deploy and not live yet")
				return serving.Rewrite{}, false
			}
			// v2 functions are served as Cloud Run services.
			converted.Run = &serving.RunRewrite{ServiceID: rw.Function.ID, Region: ep.Region}
		} else {
			converted.Function = rw.Function.ID
			converted.FunctionRegion = ep.Region
		}

	default:
		// Schema validation guarantees one target; an empty rewrite has
		// nothing to serve.
		c.dropRewrite(rw, "rewrite has no target")
		return serving.Rewrite{}, false
	}

	return converted, true
}

func (c *Converter) dropRewrite(rw config.Rewrite, reason string) {
	pattern := rw.Glob
	if pattern == "" {
		pattern = rw.Regex
	}

	c.logger.Warn("Dropping rewrite from serving config",
		slog.String("pattern", pattern),
		slog.String("reason", reason))
}
