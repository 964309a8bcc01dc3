package handler

import (
	"mime"
	"strings"
)

// contentDisposition renders an attachment header. Names outside printable ASCII get an
// ASCII filename fallback followed by the exact UTF-8 name in the RFC 2231 filename* form.
func contentDisposition(name string) string {
	if name == "" {
		name = "download"
	}
	exact := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if !strings.Contains(exact, "filename*=") {
		return exact
	}
	fallback := mime.FormatMediaType("attachment", map[string]string{"filename": asciiFallback(name)})
	return fallback + strings.TrimPrefix(exact, "attachment")
}

// asciiFallback replaces every rune outside printable ASCII with an underscore.
func asciiFallback(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '_'
		}
		return r
	}, name)
}
