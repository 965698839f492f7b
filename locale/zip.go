package locale

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"

	"github.com/gogpu/uicore"
)

// ZipLoadResult summarizes loading a language pack: how many .fluent
// files loaded, how many failed and why. Non-.fluent entries are
// ignored, not counted as failures.
type ZipLoadResult struct {
	FilesLoaded int
	FilesFailed int
	Errors      []string
}

// LoadZip loads every .fluent file of a ZIP language pack, detecting
// each file's locale from its path: "en-US.fluent" or
// "en-US/main.fluent" (an enclosing locale directory wins over the
// file name).
func (l *Localizer) LoadZip(data []byte) (ZipLoadResult, error) {
	return l.loadZip(data, "")
}

// LoadZipWithLocale loads a ZIP language pack with every file
// assigned to the given locale, regardless of paths.
func (l *Localizer) LoadZipWithLocale(data []byte, locale string) (ZipLoadResult, error) {
	if _, err := language.Parse(locale); err != nil {
		return ZipLoadResult{}, fmt.Errorf("locale: invalid locale %q: %w", locale, err)
	}
	return l.loadZip(data, locale)
}

func (l *Localizer) loadZip(data []byte, override string) (ZipLoadResult, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ZipLoadResult{}, fmt.Errorf("locale: open zip: %w", err)
	}

	var res ZipLoadResult
	fail := func(format string, args ...any) {
		res.FilesFailed++
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".fluent") {
			continue
		}
		loc := override
		if loc == "" {
			var ok bool
			loc, ok = localeFromPath(f.Name)
			if !ok {
				fail("no locale in path: %s", f.Name)
				continue
			}
		}
		rc, err := f.Open()
		if err != nil {
			fail("open %s: %v", f.Name, err)
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			fail("read %s: %v", f.Name, err)
			continue
		}
		if err := l.AddResource(loc, string(content)); err != nil {
			fail("parse %s: %v", f.Name, err)
			continue
		}
		res.FilesLoaded++
	}
	if res.FilesFailed > 0 {
		uicore.Logger().Warn("language pack partially loaded",
			"loaded", res.FilesLoaded, "failed", res.FilesFailed)
	}
	return res, nil
}

// localeFromPath extracts the locale of a .fluent entry:
//
//	en-US.fluent            -> en-US
//	en-US/main.fluent       -> en-US
//	locales/de-DE/x.fluent  -> de-DE
func localeFromPath(path string) (string, bool) {
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")

	if len(parts) >= 2 {
		if dir := parts[len(parts)-2]; looksLikeLocale(dir) {
			return dir, true
		}
	}
	name := strings.TrimSuffix(parts[len(parts)-1], ".fluent")
	if looksLikeLocale(name) {
		return name, true
	}
	return "", false
}

// looksLikeLocale filters path components before handing them to the
// BCP 47 parser, so directory names like "locales" or "v2" are not
// mistaken for languages.
func looksLikeLocale(s string) bool {
	first, _, _ := strings.Cut(s, "-")
	if len(first) < 2 || len(first) > 3 {
		return false
	}
	for _, r := range first {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	_, err := language.Parse(s)
	return err == nil
}
