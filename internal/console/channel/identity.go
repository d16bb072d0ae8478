package channel

import "strings"

// assertedDisplayName extracts the display-name portion of a raw
// P-Asserted-Identity header value for operator display.
//
//	"Jane Doe" <sip:jane@x>  -> Jane Doe
//	Jane Doe <sip:jane@x>    -> Jane Doe
//	<sip:jane@x>             -> sip:jane@x user part (jane)
func assertedDisplayName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if i := strings.Index(raw, "<"); i >= 0 {
		name := strings.TrimSpace(raw[:i])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
		// Bare URI form: fall back to the URI user part.
		uri := strings.Trim(raw[i:], "<>")
		uri = strings.TrimPrefix(uri, "sip:")
		uri = strings.TrimPrefix(uri, "sips:")
		if at := strings.Index(uri, "@"); at > 0 {
			return uri[:at]
		}
		return uri
	}

	return strings.Trim(raw, `"`)
}
