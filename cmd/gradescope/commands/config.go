package commands

import (
	"errors"
	"fmt"
	"os"

	"gradescope-cli/lib/configutil"
	"gradescope-cli/lib/scrapers/gradescope/core"

	"dario.cat/mergo"
	"github.com/dustin/go-humanize"
)

type Config struct {
	BaseUrl          string `json:"base_url"`
	TokenFile        string `json:"token_file"`
	CacheFile        string `json:"cache_file"`
	CacheMaxSize     string `json:"cache_max_size"`
	Timezone         string `json:"timezone"`
	Debug            bool   `json:"debug"`
	HttpDumpDir      string `json:"http_dump_dir"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

var defaultConfig = Config{
	BaseUrl:      core.DefaultBaseUrl,
	TokenFile:    "~/.config/gradescope-cli/token.txt",
	CacheFile:    "~/.config/gradescope-cli/cache.json",
	CacheMaxSize: "1 MiB",
}

// resolvedConfig is Config with paths expanded and sizes parsed.
type resolvedConfig struct {
	Config
	CacheMaxBytes uint64
}

func loadConfig(name string) (resolvedConfig, error) {
	cfg, err := configutil.ReadConfig[Config](name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return resolvedConfig{}, fmt.Errorf("failed to read config %s: %w", name, err)
	}
	return resolveConfig(cfg)
}

func resolveConfig(cfg Config) (resolvedConfig, error) {
	err := mergo.Merge(&cfg, defaultConfig)
	if err != nil {
		return resolvedConfig{}, err
	}

	cfg.TokenFile, err = configutil.ExpandHome(cfg.TokenFile)
	if err != nil {
		return resolvedConfig{}, err
	}
	cfg.CacheFile, err = configutil.ExpandHome(cfg.CacheFile)
	if err != nil {
		return resolvedConfig{}, err
	}
	cfg.HttpDumpDir, err = configutil.ExpandHome(cfg.HttpDumpDir)
	if err != nil {
		return resolvedConfig{}, err
	}

	size, err := humanize.ParseBytes(cfg.CacheMaxSize)
	if err != nil {
		return resolvedConfig{}, fmt.Errorf("invalid cache_max_size %q: %w", cfg.CacheMaxSize, err)
	}

	return resolvedConfig{
		Config:        cfg,
		CacheMaxBytes: size,
	}, nil
}
