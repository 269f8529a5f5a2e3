// Package commands describes slash commands and parses them out of message text.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command and the handler serving it.
// Hidden commands are routed but left out of the Telegram command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}

// Name returns the lowercase command of a slash message, without the bot
// mention or arguments: "/Start@CourseBot x" is "/start". It reports false
// for text that is not a command.
func Name(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '/' {
		return "", false
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	if name == "/" {
		return "", false
	}
	return strings.ToLower(name), true
}
