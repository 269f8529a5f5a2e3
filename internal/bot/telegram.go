package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/keyboard"
	"github.com/m3rciful/coursebot/internal/dialogue"
)

const unknownDocumentText = "I can only read text messages. Please use the menu."

// TeleHandler adapts the router to telebot; commands and text share it.
func (r *Router) TeleHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := tghelpers.UpdateOf(c)
		if upd.UserID == 0 {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		return SendReply(c, r.Handle(ctx, upd.UserID, c.Text()))
	}
}

// UnknownDocument answers non-text uploads.
func UnknownDocument(c tele.Context) error {
	return tghelpers.SendText(c, unknownDocumentText)
}

// OnPanic answers an update whose handler panicked with the generic failure reply.
func (r *Router) OnPanic(c tele.Context) error {
	return SendReply(c, r.engine.Failure())
}

// SendReply renders a reply with its keyboard.
func SendReply(c tele.Context, reply dialogue.Reply) error {
	return tghelpers.SendMarkup(c, reply.Text, Markup(reply))
}

// Markup converts reply options to a telebot keyboard; nil leaves the keyboard as is.
func Markup(reply dialogue.Reply) *tele.ReplyMarkup {
	if reply.RemoveOptions {
		return keyboard.RemoveKeyboard()
	}
	if len(reply.Options) == 0 {
		return nil
	}
	return keyboard.ReplyButtons(reply.Options...)
}

// RegisterCommands adds the bot's slash commands to reg, all served by the router.
func (r *Router) RegisterCommands(reg *tg.Registry) error {
	h := r.TeleHandler()
	return errors.Join(
		reg.RegisterCommand(CommandStart, commands.Command{Handler: h, Description: "Show your menu"}),
		reg.RegisterCommand(CommandHelp, commands.Command{Handler: h, Description: "How to use the bot"}),
		reg.RegisterCommand(CommandCancel, commands.Command{Handler: h, Description: "Stop the current step"}),
		reg.RegisterCommand(CommandStats, commands.Command{Handler: h, Description: "Bot statistics", Hidden: true}),
	)
}
