package extract

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// ResolveAudioURL turns an anchor href into a playable audio URL.
//
// Direct .mp3 links pass through untouched. The megaurl redirector carries
// the real URL base64-encoded in its url= query parameter. Every other href
// resolves to the empty string; a chapter without an audio URL is dropped,
// so decode failures are swallowed rather than propagated.
func ResolveAudioURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.Contains(href, ".mp3") {
		return href
	}
	if strings.Contains(href, "megaurl") && strings.Contains(href, "url=") {
		parsed, err := url.Parse(href)
		if err != nil {
			return ""
		}
		encoded := parsed.Query().Get("url")
		if encoded == "" {
			return ""
		}
		// Query decoding turns '+' into spaces; put them back before
		// treating the value as base64.
		encoded = strings.ReplaceAll(encoded, " ", "+")
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	return ""
}
