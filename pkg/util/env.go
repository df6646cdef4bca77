package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// LoadEnv reads .env.<env> (falling back to .env) and exports any keys
// not already present in the process environment.
func LoadEnv(env string) error {
	candidates := []string{".env." + env, ".env"}
	for _, name := range candidates {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.Trim(strings.TrimSpace(value), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				os.Setenv(key, value)
			}
		}
		f.Close()
		return scanner.Err()
	}
	return os.ErrNotExist
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvDefault(key, fallback string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return fallback
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(GetEnv(key))
}

func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(GetEnv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(GetEnv(key))
}
