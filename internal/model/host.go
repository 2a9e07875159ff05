package model

import "net/url"

// hostOf returns the host name of rawURL, or "" if it does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
