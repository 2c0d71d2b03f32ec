// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files, with environment variables as an overlay. Each file in
// the directory is one secret: the filename is the key name and the file
// contents (trimmed) are the value.
//
// Supported key files: openai-api-key, retraction-registry-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory or missing files are not errors; Load
// returns an empty map. Unreadable files produce a warning on stderr but
// do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get resolves a secret by key. The environment wins over the file
// directory: key "openai-api-key" is checked as DEEP_RESEARCH_OPENAI_API_KEY
// first. Returns "" when the secret is unset in both places.
func Get(secrets map[string]string, key string) string {
	if v := os.Getenv(envKey(key)); v != "" {
		return v
	}
	return secrets[key]
}

// envKey converts a file-style key name to its environment variable form.
func envKey(key string) string {
	return "DEEP_RESEARCH_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
