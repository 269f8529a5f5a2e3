package helpers

import (
	"log/slog"

	"github.com/m3rciful/coursebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current recipient.
// Messages are sent inline so replies within one chat keep their order.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var err error
	if len(opts) > 0 && opts[0] != nil {
		err = c.Send(text, opts[0])
	} else {
		err = c.Send(text)
	}
	if err != nil {
		logger.Warn(BuildContext(c), "tg", "send.failed",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return err
}

// SendMarkup sends text with the given reply markup attached.
func SendMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return SendText(c, text)
	}
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}
