// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves credentials from three places, in order: an
// explicit value, a directory of plain-text key files (file name is the
// key, trimmed contents the value), and environment variables, which may
// be seeded from a .env file.
//
// Supported key files: edinet-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EdinetAPIKey is the key file name for the EDINET subscription key.
const EdinetAPIKey = "edinet-api-key"

// EdinetEnvVars are consulted, in order, when no key file is present.
// API_TOKEN is the variable older fetch scripts read from .env.
var EdinetEnvVars = []string{"EDINET_FACTS_EDINET_API_KEY", "EDINET_API_KEY", "API_TOKEN"}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// LoadEnv copies variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored. With no arguments it reads ./.env.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Resolve returns explicit when set, then loaded[key], then the first
// non-empty environment variable in envVars.
func Resolve(explicit string, loaded map[string]string, key string, envVars ...string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := loaded[key]; ok && v != "" {
		return v
	}
	for _, name := range envVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
