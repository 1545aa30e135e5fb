package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ram-020998/nexusmerge/internal/platform/envutil"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
	"github.com/ram-020998/nexusmerge/internal/services"
)

type Config struct {
	ServerAddr  string `yaml:"server_addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`

	Normalization struct {
		TrimTrailingWhitespace  bool `yaml:"trim_trailing_whitespace"`
		CollapseInnerWhitespace bool `yaml:"collapse_inner_whitespace"`
		FoldCase                bool `yaml:"fold_case"`
	} `yaml:"normalization"`
}

// LoadConfig reads the environment, then overlays the optional YAML file
// named by NEXUSMERGE_CONFIG. YAML wins over env for keys it sets.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServerAddr:  envutil.String("SERVER_ADDR", ":8080"),
		MaxUploadMB: envutil.Int("MAX_UPLOAD_MB", 256),
	}
	cfg.Normalization.TrimTrailingWhitespace = envutil.Bool("NORMALIZE_TRIM_TRAILING_WS", true)
	cfg.Normalization.CollapseInnerWhitespace = envutil.Bool("NORMALIZE_COLLAPSE_INNER_WS", false)
	cfg.Normalization.FoldCase = envutil.Bool("NORMALIZE_FOLD_CASE", false)

	if path := envutil.String("NEXUSMERGE_CONFIG", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %q: %w", path, err)
		}
		log.Info("loaded config overlay", "path", path)
	}
	return cfg, nil
}

func (c Config) NormalizationPolicy() services.NormalizationPolicy {
	return services.NormalizationPolicy{
		TrimTrailingWhitespace:  c.Normalization.TrimTrailingWhitespace,
		CollapseInnerWhitespace: c.Normalization.CollapseInnerWhitespace,
		FoldCase:                c.Normalization.FoldCase,
	}
}
