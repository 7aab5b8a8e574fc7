package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source holds a value.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes where a secret may come from. File wins over Value, and
// Value wins over Env.
type Source struct {
	// Name is used in error messages, e.g. "openai api key".
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points to a file holding the secret.
	File string
	// Env names an environment variable consulted last. Values from a .env
	// file end up here once loaded.
	Env string
}

// Load resolves the secret and trims it.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s (set %s): %w", name, env, ErrNotConfigured)
	}

	return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
}
