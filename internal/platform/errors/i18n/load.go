package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// LoadDir registers one catalog per "<locale>.yaml" file in dir and returns
// the registered locales in order. Each file maps error codes to message
// templates; codes it leaves out keep the en-US text.
func LoadDir(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list message catalogs: %w", err)
	}
	sort.Strings(paths)

	loaded := make([]*Catalog, 0, len(paths))
	for _, path := range paths {
		cat, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, cat)
	}

	locales := make([]string, 0, len(loaded))
	for _, cat := range loaded {
		registerCatalog(cat.locale, cat)
		locales = append(locales, cat.locale)
	}
	return locales, nil
}

func loadFile(path string) (*Catalog, error) {
	locale := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, err := language.Parse(locale); err != nil {
		return nil, fmt.Errorf("message catalog %s: invalid locale %q", path, locale)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog: %w", err)
	}
	var overrides map[Code]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse message catalog %s: %w", path, err)
	}

	messages := make(map[Code]string, len(enUSMessages)+len(overrides))
	for code, text := range enUSMessages {
		messages[code] = text
	}
	for code, text := range overrides {
		if _, err := template.New(code).Funcs(template.FuncMap{"num": func(string) string { return "" }}).Parse(text); err != nil {
			return nil, fmt.Errorf("message catalog %s: template %s: %w", path, code, err)
		}
		messages[code] = text
	}
	return NewCatalog(locale, messages), nil
}
