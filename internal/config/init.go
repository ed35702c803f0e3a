package config

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
)

const exampleJSON = `{
  "destination": "./site",
  "clean": true,
  "folders": ["./assets"],
  "apidoc": "./src/api",
  "kss": "./src/styles",
  "rules": [
    {
      "pattern": "**/changelog.json",
      "select": "$.releases[*]",
      "name": "changelog/{{ slug .version }}.md",
      "title": "Release {{ .version }}",
      "layout": "layout_changelog.html",
      "collection": "changelog"
    }
  ],
  "logging": {"level": "info", "format": "text"},
  "history": {"path": "./.kapi/history.db"}
}
`

const exampleYAML = `destination: ./site
clean: true
folders:
  - ./assets
apidoc: ./src/api
kss: ./src/styles
rules:
  - pattern: "**/changelog.json"
    select: "$.releases[*]"
    name: "changelog/{{ slug .version }}.md"
    title: "Release {{ .version }}"
    layout: layout_changelog.html
    collection: changelog
logging:
  level: info
  format: text
history:
  path: ./.kapi/history.db
`

// Init writes an example configuration to path. The format follows the file
// extension: .yaml and .yml get YAML, anything else JSON.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	content := exampleJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content = exampleYAML
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create configuration directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).
			Build()
	}
	return nil
}
