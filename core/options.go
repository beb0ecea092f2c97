package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"gopkg.in/yaml.v3"
)

// envBindings maps environment variables onto dotted config paths.
var envBindings = map[string]string{
	"SERVICE_NAME":             "service_name",
	"LALAMOVE_API_KEY":         "provider.api_key",
	"LALAMOVE_SECRET":          "provider.secret",
	"LALAMOVE_BASE_URL":        "provider.base_url",
	"LALAMOVE_MARKET":          "provider.market",
	"LALAMOVE_LANGUAGE":        "provider.language",
	"PROVIDER_TIMEOUT":         "provider.timeout",
	"LALAMOVE_VERIFY_WEBHOOKS": "provider.verify_webhooks",
	"LALAMOVE_WEBHOOK_PATH":    "provider.webhook_path",
	"PORT":                     "server.port",
	"CORS_ALLOWED_ORIGINS":     "server.allowed_origins",
	"DATABASE_DRIVER":          "database.driver",
	"DATABASE_DSN":             "database.dsn",
	"DATABASE_DEBUG":           "database.debug",
	"LOG_LEVEL":                "log.level",
	"LOG_FORMAT":               "log.format",
}

// ConfigLoader resolves Config from layered sources with precedence
// defaults < file < env < runtime.
type ConfigLoader struct {
	FilePath  string
	LookupEnv func(key string) (string, bool)
	Runtime   map[string]any
}

func NewConfigLoader(filePath string) *ConfigLoader {
	return &ConfigLoader{
		FilePath:  strings.TrimSpace(filePath),
		LookupEnv: os.LookupEnv,
	}
}

func (l *ConfigLoader) Load(_ context.Context) (Config, error) {
	defaults := DefaultConfig()
	if l == nil {
		return defaults, defaults.Validate()
	}

	fileLayer, err := l.fileLayer()
	if err != nil {
		return Config{}, err
	}

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("file", 10),
			fileLayer,
			opts.WithSnapshotID[map[string]any]("file"),
		),
		opts.NewLayer(
			opts.NewScope("env", 20),
			l.envLayer(),
			opts.WithSnapshotID[map[string]any]("env"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 30),
			cloneLayer(l.Runtime),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	raw, err := normalizeLayer(merged.Value)
	if err != nil {
		return Config{}, err
	}

	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg.normalized(), nil
}

func (l *ConfigLoader) fileLayer() (map[string]any, error) {
	if l.FilePath == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("core: read config file %q: %w", l.FilePath, err)
	}
	layer := map[string]any{}
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("core: parse config file %q: %w", l.FilePath, err)
	}
	return layer, nil
}

func (l *ConfigLoader) envLayer() map[string]any {
	layer := map[string]any{}
	lookup := l.LookupEnv
	if lookup == nil {
		return layer
	}
	for key, path := range envBindings {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		setPath(layer, path, strings.TrimSpace(value))
	}
	return layer
}

func configToLayerMap(cfg Config) map[string]any {
	return map[string]any{
		"service_name": cfg.ServiceName,
		"provider": map[string]any{
			"api_key":  cfg.Provider.APIKey,
			"secret":   cfg.Provider.Secret,
			"base_url": cfg.Provider.BaseURL,
			"market":   cfg.Provider.Market,
			"language": cfg.Provider.Language,
			"timeout":  cfg.Provider.Timeout,

			"verify_webhooks": cfg.Provider.VerifyWebhooks,
			"webhook_path":    cfg.Provider.WebhookPath,
		},
		"server": map[string]any{
			"port":            cfg.Server.Port,
			"allowed_origins": append([]string(nil), cfg.Server.AllowedOrigins...),
		},
		"database": map[string]any{
			"driver":       cfg.Database.Driver,
			"dsn":          cfg.Database.DSN,
			"debug":        cfg.Database.Debug,
			"ping_timeout": cfg.Database.PingTimeout,
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
	}
}

// normalizeLayer coerces string values from env and YAML into the field types
// the config struct decodes.
func normalizeLayer(raw map[string]any) (map[string]any, error) {
	out := cloneLayer(raw)
	for _, path := range []string{"provider.timeout", "database.ping_timeout"} {
		if value, ok := getPath(out, path).(string); ok {
			parsed, err := time.ParseDuration(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("core: invalid duration for %s: %w", path, err)
			}
			setPath(out, path, parsed)
		}
	}
	if value, ok := getPath(out, "server.port").(string); ok {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: invalid server port %q", value)
		}
		setPath(out, "server.port", port)
	}
	for _, path := range []string{"database.debug", "provider.verify_webhooks"} {
		if value, ok := getPath(out, path).(string); ok {
			flag, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("core: invalid flag for %s: %q", path, value)
			}
			setPath(out, path, flag)
		}
	}
	switch value := getPath(out, "server.allowed_origins").(type) {
	case string:
		setPath(out, "server.allowed_origins", splitList(value))
	case []any:
		origins := make([]string, 0, len(value))
		for _, item := range value {
			if origin := strings.TrimSpace(fmt.Sprint(item)); origin != "" {
				origins = append(origins, origin)
			}
		}
		setPath(out, "server.allowed_origins", origins)
	}
	return out, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getPath(layer map[string]any, path string) any {
	segments := strings.Split(path, ".")
	current := layer
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return value
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func setPath(layer map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := layer
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

func cloneLayer(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		if nested, ok := value.(map[string]any); ok {
			out[key] = cloneLayer(nested)
			continue
		}
		out[key] = value
	}
	return out
}
