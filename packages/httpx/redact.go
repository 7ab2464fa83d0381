package httpx

import neturl "net/url"

// RedactURL strips credentials out of a URL before it is logged or shown to
// a user. Every call site that logs a proxy or request URL must go through
// this helper; ad hoc redaction regexes are not allowed.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := neturl.Parse(raw)
	if err != nil {
		// Unparseable input could hide credentials anywhere; hide all of it.
		return "<invalid url>"
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = neturl.UserPassword(u.User.Username(), "xxxxx")
		}
	}

	return u.String()
}
