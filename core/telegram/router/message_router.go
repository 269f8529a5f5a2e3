package router

import (
	tg "github.com/m3rciful/coursebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls behaviour for text and document updates.
type TextOptions struct {
	// HandlerName labels the text handler in logs and metrics. Defaults to "text".
	HandlerName     string
	UnknownDocument tele.HandlerFunc
}

// TextRoutes sends every plain text message to text and every document to
// opts.UnknownDocument. Slash commands in the registry never reach OnText.
func TextRoutes(text tele.HandlerFunc, opts TextOptions) []tg.Route {
	name := opts.HandlerName
	if name == "" {
		name = "text"
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: summarized(name, text)},
		{Endpoint: tele.OnDocument, Handler: summarized("unexpected_document", opts.UnknownDocument)},
	}
}
