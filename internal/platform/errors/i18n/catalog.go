// Package i18n renders localized, player-facing text for domain error codes.
package i18n

import (
	"bytes"
	"sync"
	"text/template"

	i18ncatalog "github.com/JayLeung362573/373-sub000/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code. It mirrors errors.Code as a string
// so this package does not import the errors package.
type Code = string

const namespace = "errors"

// Catalog maps error codes to message templates for one locale.
type Catalog struct {
	locale    string
	templates map[Code]*template.Template
	raw       map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog closest to locale. Unknown locales fall back
// to en-US.
func GetCatalog(locale string) *Catalog {
	resolved := i18ncatalog.Default().Match(locale)
	if c, ok := lookupCatalog(resolved); ok {
		return c
	}
	resolved, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(resolved, namespace)
	return storeCatalogIfAbsent(resolved, NewCatalog(resolved, messages))
}

// NewCatalog builds a catalog from raw templates. Templates that fail to
// parse are rendered verbatim.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		templates: make(map[Code]*template.Template, len(messages)),
		raw:       make(map[Code]string, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if tmpl, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = tmpl
		}
	}
	return c
}

// RegisterCatalog installs cat for locale, replacing any cached catalog.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code with metadata. Unknown codes render
// as the code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return raw
	}
	return buf.String()
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

func storeCatalogIfAbsent(locale string, candidate *Catalog) *Catalog {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = candidate
	return candidate
}
