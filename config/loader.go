package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/wirekit/logger"
)

// FileSystem abstracts the file lookups done by the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads from the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds loader dependencies and file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the filesystem used to locate files.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles are the files a load will read. Either may be empty.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths from lc, searching the standard
// locations for the ones left unset.
func ResolveFiles(serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(lc.FileSystem, candidates(serviceName, "config.yml"))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(lc.FileSystem, append(
			candidates(serviceName, ".env."+serviceName),
			candidates(serviceName, ".env")...,
		))
	}
	return files
}

// candidates lists file under cmd/<service>, config/ and the working
// directory, each also looked up one and two levels up.
func candidates(serviceName, file string) []string {
	dirs := []string{
		filepath.Join("cmd", serviceName),
		"config",
		".",
	}
	if short := shortName(serviceName); short != serviceName {
		dirs = append([]string{dirs[0], filepath.Join("cmd", short)}, dirs[1:]...)
	}

	paths := make([]string, 0, len(dirs)*3)
	for _, dir := range dirs {
		for _, up := range []string{".", "..", filepath.Join("..", "..")} {
			paths = append(paths, filepath.Join(up, dir, file))
		}
	}
	return paths
}

func shortName(serviceName string) string {
	if i := strings.LastIndex(serviceName, "-"); i != -1 {
		return serviceName[i+1:]
	}
	return serviceName
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig reads config.yml and .env files for serviceName into cfg.
// Environment variables override file values; SERVER_PORT sets server.port
// and SETTINGS_REGION sets settings.region. Missing files are not an error.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	files := ResolveFiles(serviceName, lc)
	log := logger.WithComponent("config")

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
		}
		log.Debug("Config file loaded", map[string]interface{}{"path": files.ConfigFile})
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("Failed to load env file", map[string]interface{}{"path": files.EnvFile, "error": err.Error()})
		}
	}
	bindEnviron(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshalling config for service %s: %w", serviceName, err)
	}
	return nil
}

// Load reads, defaults and validates a ServiceConfig.
func Load(serviceName string, opts ...LoaderOption) (*ServiceConfig, error) {
	cfg := &ServiceConfig{Name: serviceName}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnviron(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		for _, k := range envKeys(key) {
			v.Set(k, value)
		}
	}
}

// flatSections hold string maps whose keys may contain underscores.
var flatSections = map[string]bool{"settings": true}

// envKeys maps an environment variable name to the config keys it may set.
// Only the leading underscores can be section separators, so A_B_C yields
// a_b_c, a.b_c and a.b.c. Below a flat section only the first one splits.
func envKeys(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	if len(parts) > 1 && flatSections[parts[0]] {
		return []string{lower, parts[0] + "." + strings.Join(parts[1:], "_")}
	}
	keys := make([]string, 0, len(parts))
	for dots := 0; dots < len(parts); dots++ {
		keys = append(keys, strings.Join(parts[:dots+1], ".")+joinRest(parts[dots+1:]))
	}
	return keys
}

func joinRest(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "_" + strings.Join(parts, "_")
}
