package i18n

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeCatalogFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirRegistersCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "fr-FR.yaml", `
DICE_INVALID_NOTATION: "Notation de dés invalide : {{.Input}}"
`)
	writeCatalogFile(t, dir, "notes.txt", "ignored")

	locales, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if !reflect.DeepEqual(locales, []string{"fr-FR"}) {
		t.Fatalf("locales = %v", locales)
	}

	cat := GetCatalog("fr-FR")
	if cat.Locale() != "fr-FR" {
		t.Fatalf("catalog locale = %q", cat.Locale())
	}
	if got := cat.Format(CodeDiceInvalidNotation, map[string]string{"Input": "2x6"}); got != "Notation de dés invalide : 2x6" {
		t.Fatalf("override = %q", got)
	}
	if got := cat.Format(CodeAlreadyExists, map[string]string{"Kind": "Encounter", "Name": "Crypt"}); got != "Encounter already exists: Crypt" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestLoadDirRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{name: "bad locale", file: "not a locale!.yaml", body: "A: b\n", want: "invalid locale"},
		{name: "bad yaml", file: "de-DE.yaml", body: "A: [b\n", want: "parse message catalog"},
		{name: "bad template", file: "it-IT.yaml", body: "A: \"{{.Input\"\n", want: "template A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCatalogFile(t, dir, tt.file, tt.body)
			_, err := LoadDir(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadDirEmpty(t *testing.T) {
	locales, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(locales) != 0 {
		t.Fatalf("locales = %v", locales)
	}
}
