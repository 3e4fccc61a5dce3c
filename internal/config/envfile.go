package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var envFileNames = []string{".env.local", ".env"}

// loadEnvFiles applies .env.local then .env from the working directory and
// the executable's directory. Variables already set are left alone, so the
// real environment always wins. It returns the files that were read.
func loadEnvFiles() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Dir(exe); dir != "" && !contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	var loaded []string
	for _, dir := range dirs {
		for _, name := range envFileNames {
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			applyEnvFile(data)
			loaded = append(loaded, path)
		}
	}
	return loaded
}

// applyEnvFile parses KEY=VALUE lines. Blank lines, # comments and an
// optional "export " prefix are accepted.
func applyEnvFile(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
