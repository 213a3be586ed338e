package serving

// TrailingSlashBehavior is the wire enum for trailing-slash normalization.
type TrailingSlashBehavior string

const (
	TrailingSlashAdd    TrailingSlashBehavior = "ADD"
	TrailingSlashRemove TrailingSlashBehavior = "REMOVE"
)

// RunRewrite references a Cloud Run service as a rewrite target.
type RunRewrite struct {
	ServiceID string `json:"serviceId"`
	Region    string `json:"region,omitempty"`
}

// Rewrite is a resolved rewrite rule. Exactly one of Path, Function, Run or
// DynamicLinks is set, alongside exactly one of Glob or Regex.
type Rewrite struct {
	Glob           string      `json:"glob,omitempty"`
	Regex          string      `json:"regex,omitempty"`
	Path           string      `json:"path,omitempty"`
	Function       string      `json:"function,omitempty"`
	FunctionRegion string      `json:"functionRegion,omitempty"`
	Run            *RunRewrite `json:"run,omitempty"`
	DynamicLinks   bool        `json:"dynamicLinks,omitempty"`
}

// Redirect is a resolved redirect rule.
type Redirect struct {
	Glob       string `json:"glob,omitempty"`
	Regex      string `json:"regex,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Header carries the collapsed header mapping for one matcher.
type Header struct {
	Glob    string            `json:"glob,omitempty"`
	Regex   string            `json:"regex,omitempty"`
	Headers map[string]string `json:"headers"`
}

// I18nConfig selects the content root for internationalized serving.
type I18nConfig struct {
	Root string `json:"root"`
}

// Config is the serving configuration in the wire shape the hosting API
// accepts. Sections absent from the authored configuration stay nil and are
// omitted from the payload.
type Config struct {
	Rewrites              []Rewrite             `json:"rewrites,omitempty"`
	Redirects             []Redirect            `json:"redirects,omitempty"`
	Headers               []Header              `json:"headers,omitempty"`
	CleanURLs             *bool                 `json:"cleanUrls,omitempty"`
	TrailingSlashBehavior TrailingSlashBehavior `json:"trailingSlashBehavior,omitempty"`
	AppAssociation        string                `json:"appAssociation,omitempty"`
	I18n                  *I18nConfig           `json:"i18n,omitempty"`
}
