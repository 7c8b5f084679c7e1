package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sigs.k8s.io/yaml"
)

const (
	DEFAULT_CONFIG_PATH = "/config/config.yaml"

	DEFAULT_LOG_LEVEL   = "info"
	DEFAULT_SERVER_PORT = 8080

	DEFAULT_SECRET_ENCODING = SecretEncodingBase64

	// The configured webhook secret is base64 text and decodes to the raw key bytes.
	SecretEncodingBase64 = "base64"
	// The configured webhook secret is used literally as UTF-8 key bytes.
	SecretEncodingPlain = "plain"
)

var logLevel *slog.LevelVar

// Initialize the logger
func init() {
	logLevel = &slog.LevelVar{}
	opts := slog.HandlerOptions{
		Level: logLevel,
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &opts))
	slog.SetDefault(logger)
}

type Config struct {
	LogLevel string       `json:"logLevel,omitempty"`
	Server   ServerConfig `json:"server,omitempty"`
	Teams    TeamsConfig  `json:"teams"`
	SFMC     SFMCConfig   `json:"sfmc,omitempty"`
}

type ServerConfig struct {
	Port int       `json:"port,omitempty"`
	SSL  SSLConfig `json:"ssl,omitempty"`
}

type SSLConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Cert    string `json:"cert,omitempty"`
	Key     string `json:"key,omitempty"`
}

type TeamsConfig struct {
	// Shared secret of the outgoing webhook, shown by Teams on creation.
	WebhookSecret string `json:"webhook-secret"`
	// How the secret string decodes to key bytes, "base64" or "plain".
	SecretEncoding string `json:"secret-encoding,omitempty"`
}

type SFMCConfig struct {
	AuthURL            string `json:"auth-url,omitempty"`
	RestURL            string `json:"rest-url,omitempty"`
	ClientID           string `json:"client-id,omitempty"`
	ClientSecret       string `json:"client-secret,omitempty"`
	EventDefinitionKey string `json:"event-definition-key,omitempty"`
	// Optional legacy App Center signing secret. When set, forwarded event
	// payloads are wrapped in an HS256-signed JWT.
	JWTSecret string `json:"jwt-secret,omitempty"`
}

// Forwarding is optional, the gateway can run verify-and-reply only.
func (s SFMCConfig) Enabled() bool {
	return s.AuthURL != "" || s.RestURL != "" || s.ClientID != "" || s.EventDefinitionKey != ""
}

// Returns a Config with default values set
func DefaultConfig() Config {
	return Config{
		LogLevel: DEFAULT_LOG_LEVEL,
		Server: ServerConfig{
			Port: DEFAULT_SERVER_PORT,
		},
		Teams: TeamsConfig{
			SecretEncoding: DEFAULT_SECRET_ENCODING,
		},
	}
}

// Loads config from file, returns error if config is invalid
// Arguments:
//
//	path: Path to config file, if empty will use DEFAULT_CONFIG_PATH
//	env: Determines if enviroment variables in the file will be expanded before decoding
//	logLevelOverride: Override the log level given by the config
func LoadConfig(path string, env bool, logLevelOverride string) (Config, error) {
	c, err := loadConfigFile(path, env)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load configuration file '%s': %w", path, err)
	}

	if logLevelOverride == "" {
		err = setLogLevel(c.LogLevel)
	} else {
		err = setLogLevel(logLevelOverride)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to set log level to '%s': %w", logLevelOverride, err)
	}

	if c.Server.SSL.Enabled && (c.Server.SSL.Cert == "" || c.Server.SSL.Key == "") {
		return Config{}, fmt.Errorf("incomplete SSL configuration: cert and key must be set if SSL is enabled")
	}

	if c.Teams.WebhookSecret == "" {
		return Config{}, fmt.Errorf("teams webhook secret must be set in the configuration")
	}

	switch c.Teams.SecretEncoding {
	case SecretEncodingBase64, SecretEncodingPlain:
	default:
		return Config{}, fmt.Errorf("unknown secret encoding '%s', must be '%s' or '%s'", c.Teams.SecretEncoding, SecretEncodingBase64, SecretEncodingPlain)
	}

	if c.SFMC.Enabled() {
		if c.SFMC.AuthURL == "" || c.SFMC.RestURL == "" || c.SFMC.ClientID == "" || c.SFMC.ClientSecret == "" || c.SFMC.EventDefinitionKey == "" {
			return Config{}, fmt.Errorf("incomplete SFMC configuration: auth-url, rest-url, client-id, client-secret and event-definition-key must all be set to enable forwarding")
		}
	}

	return c, nil
}

func loadConfigFile(path string, env bool) (Config, error) {
	c := DefaultConfig()

	p := path
	if p == "" {
		p = DEFAULT_CONFIG_PATH
	}

	// #nosec G304 -- Local users can decide on their file path themselves.
	f, err := os.ReadFile(p)
	if path == "" && os.IsNotExist(err) {
		slog.Info("No config file specified and default file does not exist, falling back to default values.", slog.String("default-path", p))
		return c, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", p, err)
	}

	if env {
		f = []byte(os.ExpandEnv(string(f)))
	}

	err = yaml.Unmarshal(f, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config file '%s': %w", p, err)
	}

	return c, nil
}

// Parse a given string and set the resulting log level
func setLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level '%s'", level)
	}
	return nil
}
