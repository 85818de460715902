package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stanercelik/harfiye/duel"
)

type Config struct {
	allowedOrigins []string
	bind           string
	maxMessageSize int64
	port           int
	prefix         string
	profile        bool
	rateBurst      int
	rateLimit      float64
	sessionTimeout time.Duration
	shareURL       string
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	wordsDir       string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.rateLimit <= 0 {
		return fmt.Errorf("invalid rate limit (must be above 0): %v", c.rateLimit)
	}
	if c.rateBurst < 1 {
		return fmt.Errorf("invalid rate burst (must be at least 1): %d", c.rateBurst)
	}
	if c.maxMessageSize < 1 {
		return fmt.Errorf("invalid max message size (must be at least 1): %d", c.maxMessageSize)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}
	if c.shareURL != "" {
		u, err := url.Parse(c.shareURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid share url (must be absolute): %q", c.shareURL)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) logLevel() zerolog.Level {
	if c.verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (c *Config) clientConfig() duel.ClientConfig {
	return duel.ClientConfig{
		RateLimit:      c.rateLimit,
		RateBurst:      c.rateBurst,
		MaxMessageSize: c.maxMessageSize,
	}
}

// origins drops blanks and trailing slashes; an empty result means any
// origin is allowed.
func (c *Config) origins() []string {
	return lo.FilterMap(c.allowedOrigins, func(o string, _ int) (string, bool) {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		return o, o != ""
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("HARFIYE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "harfiye",
		Short:         "Real-time multiplayer Turkish word duels.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			zerolog.SetGlobalLevel(cfg.logLevel())

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "origins allowed to connect, comma-separated; empty allows any (env: HARFIYE_ALLOWED_ORIGINS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: HARFIYE_BIND)")
	fs.Int64Var(&cfg.maxMessageSize, "max-message-size", 4096, "largest inbound websocket message in bytes (env: HARFIYE_MAX_MESSAGE_SIZE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: HARFIYE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: HARFIYE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: HARFIYE_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "inbound messages a connection may send in a burst (env: HARFIYE_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "sustained inbound messages per second per connection (env: HARFIYE_RATE_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 10*time.Minute, "time before empty rooms are removed, 0 to disable (env: HARFIYE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.shareURL, "share-url", "", "base URL encoded into room QR codes; derived from the request when empty (env: HARFIYE_SHARE_URL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: HARFIYE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: HARFIYE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HARFIYE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HARFIYE_VERSION)")
	fs.StringVar(&cfg.wordsDir, "words-dir", "", "directory holding words_tr_{5,6,7}.json; embedded lists when empty (env: HARFIYE_WORDS_DIR)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("harfiye v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
