package locale

import (
	"archive/zip"
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBasicTranslation(t *testing.T) {
	l := NewLocalizer("en-US")
	err := l.AddResource("en-US", `
hello = Hello, world!
greeting = Hello, { $name }!
`)
	if err != nil {
		t.Fatalf("AddResource: %v", err)
	}

	if got := l.Translate("en-US", "hello", nil); got != "Hello, world!" {
		t.Errorf("hello = %q", got)
	}
	got := l.Translate("en-US", "greeting", map[string]any{"name": "Alice"})
	if got != "Hello, Alice!" {
		t.Errorf("greeting = %q", got)
	}
	// Missing argument renders the placeable.
	if got := l.Translate("en-US", "greeting", nil); got != "Hello, {$name}!" {
		t.Errorf("greeting without args = %q", got)
	}
}

func TestMultilineMessage(t *testing.T) {
	l := NewLocalizer("en-US")
	err := l.AddResource("en-US", `multi =
    first line
    second line
`)
	if err != nil {
		t.Fatalf("AddResource: %v", err)
	}
	want := "first line\nsecond line"
	if got := l.Translate("en-US", "multi", nil); got != want {
		t.Errorf("multi = %q, want %q", got, want)
	}
}

func TestFallbackResolutionOrder(t *testing.T) {
	l := NewLocalizer("en-US")
	if err := l.AddResource("en-US", "only-en = english\nshared = english"); err != nil {
		t.Fatal(err)
	}
	if err := l.AddResource("de-DE", "shared = deutsch"); err != nil {
		t.Fatal(err)
	}
	l.SetFallbackChain("de-CH", []string{"de-DE"})

	// Chain hit before the default locale.
	if got := l.Translate("de-CH", "shared", nil); got != "deutsch" {
		t.Errorf("de-CH shared = %q, want deutsch", got)
	}
	// Chain miss falls through to the default.
	if got := l.Translate("de-CH", "only-en", nil); got != "english" {
		t.Errorf("de-CH only-en = %q, want english", got)
	}
	// Nothing anywhere: the message ID comes back.
	if got := l.Translate("de-CH", "nope", nil); got != "nope" {
		t.Errorf("missing = %q, want nope", got)
	}
}

func TestMatcherFindsClosestLocale(t *testing.T) {
	l := NewLocalizer("fr-FR")
	if err := l.AddResource("en-US", "hi = hello"); err != nil {
		t.Fatal(err)
	}
	if err := l.AddResource("fr-FR", "hi = salut"); err != nil {
		t.Fatal(err)
	}
	// en-GB is not loaded; BCP 47 matching picks en-US over the
	// French default.
	if got := l.Translate("en-GB", "hi", nil); got != "hello" {
		t.Errorf("en-GB hi = %q, want hello", got)
	}
}

func TestHasMessageAndLocales(t *testing.T) {
	l := NewLocalizer("en-US")
	if err := l.AddResource("en-US", "a = x"); err != nil {
		t.Fatal(err)
	}
	if err := l.AddResource("de-DE", "b = y"); err != nil {
		t.Fatal(err)
	}

	if !l.HasMessage("en-US", "a") || l.HasMessage("en-US", "b") {
		t.Error("HasMessage does not respect bundle boundaries")
	}
	if diff := cmp.Diff([]string{"de-DE", "en-US"}, l.Locales()); diff != "" {
		t.Errorf("Locales mismatch (-want +got):\n%s", diff)
	}

	l.ClearLocale("de-DE")
	if l.HasMessage("de-DE", "b") {
		t.Error("cleared locale still answers")
	}
}

func TestBundleRefcount(t *testing.T) {
	l := NewLocalizer("en-US")
	if err := l.AddResource("en-US", "a = x"); err != nil {
		t.Fatal(err)
	}
	b := l.bundle("en-US")
	if b.Refs() != 2 {
		t.Fatalf("refs = %d, want 2", b.Refs())
	}
	// Clearing releases the localizer's reference; the retained
	// snapshot still answers.
	l.ClearLocale("en-US")
	if got, ok := b.Format("a", nil); !ok || got != "x" {
		t.Errorf("retained bundle Format = %q, %v", got, ok)
	}
	b.Release()
	if b.Refs() != 0 {
		t.Errorf("refs after release = %d", b.Refs())
	}
}

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadZipFlatAndNested(t *testing.T) {
	data := makeZip(t, map[string]string{
		"en-US.fluent":       "hello = Hello",
		"de-DE/main.fluent":  "hello = Hallo",
		"de-DE/extra.fluent": "bye = Tschuess",
		"README.md":          "not a translation",
	})

	l := NewLocalizer("en-US")
	res, err := l.LoadZip(data)
	if err != nil {
		t.Fatalf("LoadZip: %v", err)
	}
	if res.FilesLoaded != 3 || res.FilesFailed != 0 {
		t.Fatalf("result = %+v", res)
	}
	if got := l.Translate("de-DE", "hello", nil); got != "Hallo" {
		t.Errorf("de hello = %q", got)
	}
	if got := l.Translate("de-DE", "bye", nil); got != "Tschuess" {
		t.Errorf("de bye = %q", got)
	}
	if got := l.Translate("en-US", "hello", nil); got != "Hello" {
		t.Errorf("en hello = %q", got)
	}
}

func TestLoadZipLocaleOverride(t *testing.T) {
	data := makeZip(t, map[string]string{
		"anything/whatever.fluent": "msg = value",
	})
	l := NewLocalizer("en-US")
	res, err := l.LoadZipWithLocale(data, "sv-SE")
	if err != nil {
		t.Fatalf("LoadZipWithLocale: %v", err)
	}
	if res.FilesLoaded != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !l.HasMessage("sv-SE", "msg") {
		t.Error("override locale did not receive the message")
	}
}

func TestLoadZipReportsBadEntries(t *testing.T) {
	data := makeZip(t, map[string]string{
		"notalocale.fluent": "msg = value",
		"en-US.fluent":      "ok = fine",
	})
	l := NewLocalizer("en-US")
	res, err := l.LoadZip(data)
	if err != nil {
		t.Fatalf("LoadZip: %v", err)
	}
	if res.FilesLoaded != 1 || res.FilesFailed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "notalocale") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestLocaleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"en-US.fluent", "en-US", true},
		{"en-US/main.fluent", "en-US", true},
		{"locales/de-DE/errors.fluent", "de-DE", true},
		{"zh-Hans-CN.fluent", "zh-Hans-CN", true},
		{"main.fluent", "", false},
		{"locales/v2/x.fluent", "", false},
	}
	for _, tt := range tests {
		got, ok := localeFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("localeFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckSyntax(t *testing.T) {
	if errs := CheckSyntax("hello = Hello, world!"); errs != nil {
		t.Errorf("valid source: %v", errs)
	}
	errs := CheckSyntax("hello = \n")
	if len(errs) != 1 {
		t.Fatalf("errs = %v", errs)
	}
	if errs[0].Line != 2 {
		t.Errorf("line = %d, want 2", errs[0].Line)
	}
	if errs := CheckSyntax("???"); len(errs) != 1 {
		t.Errorf("garbage source: %v", errs)
	}
}

func TestConcurrentQueries(t *testing.T) {
	l := NewLocalizer("en-US")
	if err := l.AddResource("en-US", "msg = value { $n }"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := l.Translate("en-US", "msg", map[string]any{"n": j}); got == "msg" {
					t.Error("translation lost under concurrency")
					return
				}
			}
		}()
	}
	// Concurrent writers extend the same locale.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			if err := l.AddResource("en-US", "other = x"); err != nil {
				t.Errorf("AddResource: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
