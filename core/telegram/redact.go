package telegram

import "regexp"

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// redactToken hides Bot API tokens that net/http embeds in request URLs.
func redactToken(msg string) string {
	return tokenRe.ReplaceAllString(msg, "bot<redacted>")
}
