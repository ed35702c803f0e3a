package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are tried in order. godotenv never overrides a variable that is
// already set, so the earlier file wins.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads the env files present in dir and returns their paths.
func loadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, err
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
