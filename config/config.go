package config

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	AppAssociationAuto = "AUTO"
	AppAssociationNone = "NONE"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type DeployConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Snapshot  string `mapstructure:"snapshot"`
}

type PreviewConfig struct {
	// Targets maps Cloud Run service ids to locally emulated base URLs.
	Targets             map[string]string `mapstructure:"targets"`
	Public              string            `mapstructure:"public"`
	HealthCheckInterval string            `mapstructure:"health_check_interval"`
}

// FunctionRef names a deployed function, optionally pinned to a region.
type FunctionRef struct {
	ID     string `mapstructure:"id"`
	Region string `mapstructure:"region"`
}

// RunRef names a Cloud Run service, optionally pinned to a region.
type RunRef struct {
	ServiceID string `mapstructure:"service_id"`
	Region    string `mapstructure:"region"`
}

// Rewrite serves different content for a matched path. The matcher is
// exactly one of Glob or Regex; the target exactly one of Destination,
// Function, Run or DynamicLinks.
type Rewrite struct {
	Glob         string       `mapstructure:"glob"`
	Regex        string       `mapstructure:"regex"`
	Destination  string       `mapstructure:"destination"`
	Function     *FunctionRef `mapstructure:"function"`
	Run          *RunRef      `mapstructure:"run"`
	DynamicLinks bool         `mapstructure:"dynamic_links"`
}

// Redirect answers a matched path with an HTTP redirect.
type Redirect struct {
	Glob        string `mapstructure:"glob"`
	Regex       string `mapstructure:"regex"`
	Destination string `mapstructure:"destination"`
	Type        int    `mapstructure:"type"`
}

// Header is one key/value pair of a header rule. Duplicate keys are allowed
// here; they collapse last-write-wins during conversion.
type Header struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// HeaderRule attaches response headers to matched paths.
type HeaderRule struct {
	Glob    string   `mapstructure:"glob"`
	Regex   string   `mapstructure:"regex"`
	Headers []Header `mapstructure:"headers"`
}

type I18nConfig struct {
	Root string `mapstructure:"root"`
}

// HostingConfig is the user-authored hosting configuration. Every section is
// optional; absent sections stay nil and are omitted from the converted
// serving configuration.
type HostingConfig struct {
	Rewrites       []Rewrite    `mapstructure:"rewrites"`
	Redirects      []Redirect   `mapstructure:"redirects"`
	Headers        []HeaderRule `mapstructure:"headers"`
	CleanURLs      *bool        `mapstructure:"clean_urls"`
	TrailingSlash  *bool        `mapstructure:"trailing_slash"`
	AppAssociation string       `mapstructure:"app_association"`
	I18n           *I18nConfig  `mapstructure:"i18n"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Deploy  DeployConfig  `mapstructure:"deploy"`
	Preview PreviewConfig `mapstructure:"preview"`
	Hosting HostingConfig `mapstructure:"hosting"`

	// SourceFile is the config file the settings were read from, empty when
	// running on defaults and environment variables only.
	SourceFile string `mapstructure:"-"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":5000")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("deploy.snapshot", "backends.json")
	viper.SetDefault("preview.public", "public")
	viper.SetDefault("preview.health_check_interval", "2s")

	viper.SetConfigName("hosting")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Error("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}
	cfg.SourceFile = viper.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Preview,
			validation.By(func(value interface{}) error {
				pc, ok := value.(PreviewConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a PreviewConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.HealthCheckInterval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.Targets,
						validation.By(validateTargetURLs),
					),
				)
			}),
		),
		validation.Field(&c.Hosting,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HostingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HostingConfig")
				}
				return hc.Validate()
			}),
		),
	)
}

// Validate checks the hosting section on its own so callers reloading only
// this part can reuse it.
func (h *HostingConfig) Validate() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.Rewrites,
			validation.Each(validation.By(validateRewrite)),
		),
		validation.Field(&h.Redirects,
			validation.Each(validation.By(validateRedirect)),
		),
		validation.Field(&h.Headers,
			validation.Each(validation.By(validateHeaderRule)),
		),
		validation.Field(&h.AppAssociation,
			validation.In(AppAssociationAuto, AppAssociationNone),
		),
	)
}

func validateMatcher(glob, regex string) error {
	if (glob == "") == (regex == "") {
		return validation.NewError("validation_invalid_matcher", "exactly one of glob or regex must be set")
	}

	if glob != "" && !doublestar.ValidatePattern(glob) {
		return validation.NewError("validation_invalid_glob", "glob pattern is malformed")
	}

	if regex != "" {
		if _, err := regexp.Compile(regex); err != nil {
			return validation.NewError("validation_invalid_regex", "regex does not compile")
		}
	}

	return nil
}

func validateRewrite(value interface{}) error {
	rw, ok := value.(Rewrite)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a Rewrite")
	}

	if err := validateMatcher(rw.Glob, rw.Regex); err != nil {
		return err
	}

	targets := 0
	if rw.Destination != "" {
		targets++
	}
	if rw.Function != nil {
		targets++
		if rw.Function.ID == "" {
			return validation.NewError("validation_missing_function_id", "function rewrite needs an id")
		}
	}
	if rw.Run != nil {
		targets++
		if rw.Run.ServiceID == "" {
			return validation.NewError("validation_missing_service_id", "run rewrite needs a service id")
		}
	}
	if rw.DynamicLinks {
		targets++
	}
	if targets != 1 {
		return validation.NewError("validation_invalid_target", "exactly one rewrite target must be set")
	}

	return nil
}

func validateRedirect(value interface{}) error {
	rd, ok := value.(Redirect)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a Redirect")
	}

	if err := validateMatcher(rd.Glob, rd.Regex); err != nil {
		return err
	}

	if rd.Destination == "" {
		return validation.NewError("validation_missing_destination", "redirect destination cannot be empty")
	}

	if rd.Type != 0 && (rd.Type < 300 || rd.Type > 399) {
		return validation.NewError("validation_invalid_redirect_type", "redirect type must be a 3xx status code")
	}

	return nil
}

func validateHeaderRule(value interface{}) error {
	hr, ok := value.(HeaderRule)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HeaderRule")
	}

	if err := validateMatcher(hr.Glob, hr.Regex); err != nil {
		return err
	}

	for _, h := range hr.Headers {
		if h.Key == "" {
			return validation.NewError("validation_missing_header_key", "header key cannot be empty")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateTargetURLs(value interface{}) error {
	targets, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of service ids to URLs")
	}

	for serviceID, target := range targets {
		if serviceID == "" {
			return validation.NewError("validation_missing_service_id", "preview target service id cannot be empty")
		}
		if err := is.URL.Validate(target); err != nil {
			return validation.NewError("validation_invalid_url", "preview target must be a valid URL")
		}
	}

	return nil
}
