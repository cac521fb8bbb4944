package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

type EnvVar struct {
	Key   string
	Value string
}

func LoadEnvFiles() error {
	envPaths := []string{
		"./.env",
	}

	if home, err := os.UserHomeDir(); err == nil {
		envPaths = append(envPaths,
			filepath.Join(home, ".pillwise", ".env"),
			filepath.Join(home, ".config", "pillwise", ".env"),
		)
	}

	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := loadEnvFile(path); err != nil {
				return err
			}
		}
	}

	return nil
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = strings.Trim(value, `"`)
		} else if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
			value = strings.Trim(value, `'`)
		}

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

func GetEnvWithFallback(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func GetEnvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

var envAliases = map[string][]string{
	"PILLWISE_SERVER_PORT":          {"PORT"},
	"PILLWISE_STORAGE_DATA_DIR":     {"PILLWISE_DATA_DIR"},
	"PILLWISE_APP_DEFAULT_LANGUAGE": {"PILLWISE_LANGUAGE"},
}

func ResolveEnvWithAliases(canonicalKey string) string {
	if val := os.Getenv(canonicalKey); val != "" {
		return val
	}

	if aliases, ok := envAliases[canonicalKey]; ok {
		for _, alias := range aliases {
			if val := os.Getenv(alias); val != "" {
				return val
			}
		}
	}

	return ""
}

func GetRequiredEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", &MissingEnvError{Key: key}
	}
	return val, nil
}

type MissingEnvError struct {
	Key string
}

func (e *MissingEnvError) Error() string {
	return "required environment variable not set: " + e.Key
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
