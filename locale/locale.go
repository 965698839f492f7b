package locale

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/gogpu/uicore"
)

// Bundle holds the parsed messages of one locale. Bundles are
// reference-counted: the localizer holds one reference, and every
// query retains the bundle for its duration, so replacing or clearing
// a locale never races with readers. The message map is immutable
// after construction.
type Bundle struct {
	Tag      language.Tag
	messages map[string]pattern
	refs     atomic.Int32
}

func newBundle(tag language.Tag) *Bundle {
	b := &Bundle{Tag: tag, messages: make(map[string]pattern)}
	b.refs.Store(1)
	return b
}

// Retain increments the reference count.
func (b *Bundle) Retain() { b.refs.Add(1) }

// Release decrements the reference count, dropping the message table
// once the last holder lets go.
func (b *Bundle) Release() {
	if b.refs.Add(-1) == 0 {
		b.messages = nil
	}
}

// Refs returns the current reference count.
func (b *Bundle) Refs() int32 { return b.refs.Load() }

// Has reports whether the bundle defines a message.
func (b *Bundle) Has(messageID string) bool {
	_, ok := b.messages[messageID]
	return ok
}

// Format resolves a message within this bundle only.
func (b *Bundle) Format(messageID string, args map[string]any) (string, bool) {
	p, ok := b.messages[messageID]
	if !ok {
		return "", false
	}
	return p.format(args), true
}

// withMessages returns a copy of the bundle extended by msgs. The
// original stays valid for concurrent readers.
func (b *Bundle) withMessages(msgs map[string]pattern) *Bundle {
	nb := newBundle(b.Tag)
	for k, v := range b.messages {
		nb.messages[k] = v
	}
	for k, v := range msgs {
		nb.messages[k] = v
	}
	return nb
}

// Localizer resolves message IDs to translated strings. Resource
// loading takes a write lock; queries run concurrently against
// retained bundle snapshots.
type Localizer struct {
	mu            sync.RWMutex
	bundles       map[string]*Bundle
	defaultLocale string
	fallbacks     map[string][]string

	// matcher and matcherLocales are rebuilt together when the locale
	// set changes; Match returns an index into matcherLocales.
	matcher        language.Matcher
	matcherLocales []string
}

// NewLocalizer returns a localizer that falls back to defaultLocale,
// then to the message ID itself.
func NewLocalizer(defaultLocale string) *Localizer {
	return &Localizer{
		bundles:       make(map[string]*Bundle),
		defaultLocale: defaultLocale,
		fallbacks:     make(map[string][]string),
	}
}

// DefaultLocale returns the configured default locale.
func (l *Localizer) DefaultLocale() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultLocale
}

// SetDefaultLocale replaces the default locale.
func (l *Localizer) SetDefaultLocale(locale string) {
	l.mu.Lock()
	l.defaultLocale = locale
	l.mu.Unlock()
}

// SetFallbackChain sets the locales tried, in order, when a message
// is missing from locale. The default locale is always tried last.
func (l *Localizer) SetFallbackChain(locale string, fallbacks []string) {
	l.mu.Lock()
	l.fallbacks[locale] = append([]string(nil), fallbacks...)
	l.mu.Unlock()
}

// AddResource parses FTL source and merges its messages into the
// bundle for locale. Syntax errors fail the whole resource.
func (l *Localizer) AddResource(locale, source string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("locale: invalid locale %q: %w", locale, err)
	}
	msgs, errs := parseFTL(source)
	if len(errs) > 0 {
		return fmt.Errorf("locale: %q: %w", locale, errs[0])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.bundles[locale]; ok {
		l.bundles[locale] = old.withMessages(msgs)
		old.Release()
	} else {
		b := newBundle(tag)
		b.messages = msgs
		l.bundles[locale] = b
	}
	l.rebuildMatcher()
	return nil
}

// rebuildMatcher recomputes the language matcher. Caller holds mu.
func (l *Localizer) rebuildMatcher() {
	locales := make([]string, 0, len(l.bundles))
	for k := range l.bundles {
		locales = append(locales, k)
	}
	sort.Strings(locales)
	tags := make([]language.Tag, len(locales))
	for i, loc := range locales {
		tags[i] = l.bundles[loc].Tag
	}
	l.matcherLocales = locales
	if len(tags) == 0 {
		l.matcher = nil
		return
	}
	l.matcher = language.NewMatcher(tags)
}

// bundle returns a retained bundle for locale, or nil. Callers must
// Release it.
func (l *Localizer) bundle(locale string) *Bundle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b := l.bundles[locale]
	if b != nil {
		b.Retain()
	}
	return b
}

// Translate resolves messageID for locale. Resolution order: the
// requested locale, its configured fallback chain, the closest
// loaded locale per BCP 47 matching, the default locale, and finally
// the message ID itself.
func (l *Localizer) Translate(locale, messageID string, args map[string]any) string {
	if s, ok := l.tryLocale(locale, messageID, args); ok {
		return s
	}

	l.mu.RLock()
	chain := l.fallbacks[locale]
	def := l.defaultLocale
	matcher := l.matcher
	matched := ""
	if matcher != nil {
		if want, err := language.Parse(locale); err == nil {
			if _, i, conf := matcher.Match(want); conf > language.No {
				matched = l.matcherLocales[i]
			}
		}
	}
	l.mu.RUnlock()

	for _, fb := range chain {
		if s, ok := l.tryLocale(fb, messageID, args); ok {
			return s
		}
	}

	if matched != "" && matched != locale {
		if s, ok := l.tryLocale(matched, messageID, args); ok {
			return s
		}
	}

	if locale != def {
		if s, ok := l.tryLocale(def, messageID, args); ok {
			return s
		}
	}

	uicore.Logger().Warn("untranslated message", "locale", locale, "id", messageID)
	return messageID
}

func (l *Localizer) tryLocale(locale, messageID string, args map[string]any) (string, bool) {
	b := l.bundle(locale)
	if b == nil {
		return "", false
	}
	defer b.Release()
	return b.Format(messageID, args)
}

// HasMessage reports whether locale defines messageID, without
// fallback.
func (l *Localizer) HasMessage(locale, messageID string) bool {
	b := l.bundle(locale)
	if b == nil {
		return false
	}
	defer b.Release()
	return b.Has(messageID)
}

// Locales returns the loaded locales, sorted.
func (l *Localizer) Locales() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.bundles))
	for k := range l.bundles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ClearLocale drops the bundle for locale. In-flight queries holding
// a reference finish against the old messages.
func (l *Localizer) ClearLocale(locale string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.bundles[locale]; ok {
		delete(l.bundles, locale)
		b.Release()
		l.rebuildMatcher()
	}
}

// Clear drops all bundles.
func (l *Localizer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.bundles {
		delete(l.bundles, k)
		b.Release()
	}
	l.matcher = nil
}
