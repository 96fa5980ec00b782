package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/dirserve/credentials"
	dirservehttp "github.com/sagarc03/dirserve/http"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DIRSERVE"

// DefaultFileName is looked up in the working directory when Load is given
// no config files.
const DefaultFileName = "dirserve.yaml"

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

type ctxKey struct{}

// WithContext attaches cfg to ctx.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the Config attached by WithContext.
func FromContext(ctx context.Context) (*Config, error) {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, errors.New("no config in context")
}

// Config is everything the server needs to start.
type Config struct {
	Env     string                  `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server  ServerConfig            `mapstructure:"server"`
	Storage StorageConfig           `mapstructure:"storage"`
	Upload  UploadConfig            `mapstructure:"upload"`
	Listing ListingConfig           `mapstructure:"listing"`
	Auth    AuthConfig              `mapstructure:"auth"`
	CORS    dirservehttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig               `mapstructure:"log"`
}

// ServerConfig holds listener settings. Timeouts are in seconds.
type ServerConfig struct {
	Port              int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	Interfaces        []string `mapstructure:"interfaces" validate:"dive,ip"`
	RandomRoute       bool     `mapstructure:"random_route"`
	ReadHeaderTimeout int      `mapstructure:"read_header_timeout" validate:"min=1"`
	IdleTimeout       int      `mapstructure:"idle_timeout" validate:"min=1"`
	ShutdownTimeout   int      `mapstructure:"shutdown_timeout" validate:"min=1"`
}

type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// UploadConfig controls the upload endpoint. MaxSize 0 means unlimited.
type UploadConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	MaxSize int64 `mapstructure:"max_size" validate:"min=0"`
}

type ListingConfig struct {
	Title      string `mapstructure:"title"`
	ShowHidden bool   `mapstructure:"show_hidden"`
	NoSymlinks bool   `mapstructure:"no_symlinks"`
}

// AuthConfig holds the Basic auth realm and where the credential comes from.
type AuthConfig struct {
	Realm              string `mapstructure:"realm" validate:"required"`
	credentials.Config `mapstructure:",squash"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProduction reports whether env selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

var defaults = map[string]any{
	"env": "",

	"server.port":                8080,
	"server.interfaces":          []string{},
	"server.random_route":        false,
	"server.read_header_timeout": 10,
	"server.idle_timeout":        120,
	"server.shutdown_timeout":    30,

	"storage.path": ".",

	"upload.enabled":  false,
	"upload.max_size": 0,

	"listing.title":       "",
	"listing.show_hidden": false,
	"listing.no_symlinks": false,

	"auth.realm": dirservehttp.DefaultRealm,
	"auth.spec":  "",
	"auth.file":  "",

	"cors.enabled": false,

	"log.level": "info",
}

// flagKeys maps command-line flag names to configuration keys. Flags missing
// from this table are not configuration and are ignored by Load.
var flagKeys = map[string]string{
	"env":             "env",
	"path":            "storage.path",
	"port":            "server.port",
	"interfaces":      "server.interfaces",
	"random-route":    "server.random_route",
	"upload-files":    "upload.enabled",
	"max-upload-size": "upload.max_size",
	"title":           "listing.title",
	"hidden":          "listing.show_hidden",
	"no-symlinks":     "listing.no_symlinks",
	"auth":            "auth.spec",
	"auth-file":       "auth.file",
	"realm":           "auth.realm",
	"log-level":       "log.level",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Defaults returns every configuration key with its default value, nested
// the way the YAML file is.
func Defaults() map[string]any {
	return newViper().AllSettings()
}

// Load builds the configuration from, lowest precedence first: defaults, the
// config files merged left to right, DIRSERVE_* environment variables, and
// the flags of flags that were set on the command line. flags may be nil.
//
// With no config files, ./dirserve.yaml is read when present. A named file
// that is missing or malformed is an error.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if err := readFiles(v, configFiles); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, describeValidation(err)
	}
	return &cfg, nil
}

func readFiles(v *viper.Viper, files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultFileName); err != nil {
			return nil
		}
		files = []string{DefaultFileName}
	}

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return nil
}

// bindFlags binds the flags the user actually set, so flag defaults never
// shadow file or environment values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// newValidator reports fields by their YAML key rather than the Go name.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return validate
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		msgs = append(msgs, key+" "+ruleText(fe))
	}
	return fmt.Errorf("validate config: %w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func ruleText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "ip":
		return fmt.Sprintf("must be an IP address, got %q", fe.Value())
	default:
		return "fails " + fe.Tag()
	}
}
