// Package config resolves runtime settings from CLI flags, .bzlrc files,
// and the environment. Precedence: flag > repo-root .bzlrc > home .bzlrc
// > built-in default.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultTTLMinutes keeps query results for two weeks; explicit
	// refresh is the expected invalidation path.
	DefaultTTLMinutes = 20160
	DefaultScope      = "//..."
	DefaultKind       = "genrule"

	rcFileName = ".bzlrc"
	rcSection  = "defaults"

	envTrace   = "BZL_TRACE"
	envLogFile = "BZL_LOG_FILE"
)

// Settings is the immutable resolved configuration handed to every
// component that needs it.
type Settings struct {
	Scope      string
	Kinds      []string
	SSHHost    string
	SSHDir     string
	TTLMinutes int
	NoCache    bool
	Logging    Logging
	Flags      map[string]string
	Args       []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

// Remote reports whether a remote transport was requested.
func (s Settings) Remote() bool { return s.SSHHost != "" }

// Load parses configuration from CLI arguments, environment, and .bzlrc
// files discovered from the current directory.
func Load() (Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Settings{}, fmt.Errorf("getwd: %w", err)
	}
	home, _ := os.UserHomeDir()
	return LoadArgs(os.Args[1:], os.Environ(), cwd, home)
}

// LoadArgs allows tests to supply specific args, environment, and
// directories.
func LoadArgs(args []string, environ []string, cwd, home string) (Settings, error) {
	env := parseEnv(environ)
	rc, err := loadRC(cwd, home)
	if err != nil {
		return Settings{}, err
	}

	fs := flag.NewFlagSet("bzl", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	scope := fs.String("scope", rcOrDefault(rc, "scope", DefaultScope), "bazel query scope pattern")
	fs.StringVar(scope, "S", *scope, "shorthand for --scope")
	ssh := fs.String("ssh", rcOrDefault(rc, "ssh", ""), "run query and build on a remote host (user@host)")
	fs.StringVar(ssh, "s", *ssh, "shorthand for --ssh")
	sshDir := fs.String("ssh-dir", rcOrDefault(rc, "ssh_dir", ""), "working directory on the remote host")
	fs.StringVar(sshDir, "d", *sshDir, "shorthand for --ssh-dir")
	ttl := fs.Int("cache-ttl", rcOrInt(rc, "cache_ttl", DefaultTTLMinutes), "cache TTL in minutes (0 disables)")
	fs.IntVar(ttl, "c", *ttl, "shorthand for --cache-ttl")
	noCache := fs.Bool("no-cache", false, "bypass cache and force a fresh query")
	fs.BoolVar(noCache, "n", *noCache, "shorthand for --no-cache")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}

	if *ttl < 0 {
		return Settings{}, fmt.Errorf("cache-ttl must be >= 0 (got %d)", *ttl)
	}
	if *sshDir != "" && *ssh == "" {
		return Settings{}, fmt.Errorf("ssh-dir requires ssh")
	}

	kinds := splitKinds(rcOrDefault(rc, "kinds", DefaultKind))
	if len(kinds) == 0 {
		kinds = []string{DefaultKind}
	}

	dir := *sshDir
	if *ssh != "" && dir == "" {
		// Mirror the local working directory when no remote dir is given.
		dir = cwd
	}

	s := Settings{
		Scope:      *scope,
		Kinds:      kinds,
		SSHHost:    *ssh,
		SSHDir:     dir,
		TTLMinutes: *ttl,
		NoCache:    *noCache,
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"scope":    *scope,
			"ssh":      *ssh,
			"sshDir":   dir,
			"cacheTTL": strconv.Itoa(*ttl),
			"noCache":  strconv.FormatBool(*noCache),
			"trace":    strconv.FormatBool(*trace),
			"logFile":  *logFile,
			"kinds":    strings.Join(kinds, ","),
		},
		Args: append([]string(nil), args...),
	}
	return s, nil
}

// MustLoad returns configuration or exits.
func MustLoad() Settings {
	s, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return s
}

// loadRC merges the home and repo-root .bzlrc files, repo root winning.
func loadRC(cwd, home string) (map[string]string, error) {
	values := make(map[string]string)
	candidates := make([]string, 0, 2)
	if home != "" {
		candidates = append(candidates, filepath.Join(home, rcFileName))
	}
	if root := workspaceRoot(cwd); root != "" {
		candidates = append(candidates, filepath.Join(root, rcFileName))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("ini")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for key, value := range v.GetStringMapString(rcSection) {
			values[key] = value
		}
	}
	return values, nil
}

// workspaceRoot walks up from dir looking for a bazel workspace marker.
func workspaceRoot(dir string) string {
	for dir != "" {
		for _, marker := range []string{"WORKSPACE", "MODULE.bazel"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

// SaveKinds persists the selected rule kinds to the nearest .bzlrc: the
// repo-root file when one exists, the home file otherwise.
func SaveKinds(kinds []string, cwd, home string) error {
	path := filepath.Join(home, rcFileName)
	if root := workspaceRoot(cwd); root != "" {
		if rc := filepath.Join(root, rcFileName); fileExists(rc) {
			path = rc
		}
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if fileExists(path) {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	v.Set(rcSection+".kinds", strings.Join(kinds, ","))
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitKinds(raw string) []string {
	parts := strings.Split(raw, ",")
	kinds := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kinds = append(kinds, trimmed)
		}
	}
	return kinds
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func rcOrDefault(rc map[string]string, key, fallback string) string {
	if v, ok := rc[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func rcOrInt(rc map[string]string, key string, fallback int) int {
	v, ok := rc[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
