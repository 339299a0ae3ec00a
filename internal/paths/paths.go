// Package paths resolves where tripdeck keeps its configuration and data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "tripdeck"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TRIPDECK_CONFIG_DIR"
	EnvDataDir   = "TRIPDECK_DATA_DIR"
)

// ConfigFile and EnvFile are the file names looked up in the config
// directory.
const (
	ConfigFile = "config.yaml"
	EnvFile    = ".env"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tripdeck (fallback ~/.config/tripdeck)
// macOS:   ~/Library/Application Support/tripdeck
// Windows: %APPDATA%/tripdeck
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/tripdeck (fallback ~/.local/share/tripdeck)
// macOS and Windows: the config directory plus "data".
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "data"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ResolveConfigDir applies flag > TRIPDECK_CONFIG_DIR > DefaultConfigDir().
// Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config value > TRIPDECK_DATA_DIR >
// DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultDataDir()
}

// EnvFiles lists the .env files to load, most specific first: the working
// directory, then the config directory. Missing files are left out.
func EnvFiles(configDir string) []string {
	var out []string
	seen := map[string]bool{}
	if cwd, err := platformDir.getwd(); err == nil {
		add(&out, seen, filepath.Join(cwd, EnvFile))
	}
	if configDir != "" {
		add(&out, seen, filepath.Join(configDir, EnvFile))
	}
	return out
}

func add(out *[]string, seen map[string]bool, path string) {
	if seen[path] {
		return
	}
	seen[path] = true
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		*out = append(*out, path)
	}
}
