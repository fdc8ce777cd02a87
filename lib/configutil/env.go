package configutil

import (
	"os"
	"strconv"
)

// EnvString overwrites *dst with the value of the environment variable
// when it is set and non-empty. Environment variables are the highest
// priority configuration source.
func EnvString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// EnvInt behaves like EnvString for integer options. A set but
// unparseable value is returned as an error instead of being ignored so
// typos in deployment manifests fail loudly on startup.
func EnvInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}
