package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a reply keyboard from rows of text. Empty rows are skipped
// and nil is returned when no buttons remain.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			if label == "" {
				continue
			}
			buttons = append(buttons, markup.Text(label))
		}
		if len(buttons) == 0 {
			continue
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	if len(keyboard) == 0 {
		return nil
	}
	markup.Reply(keyboard...)
	return markup
}

// ChunkLabels splits labels into rows with up to n labels per row.
func ChunkLabels(labels []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	rows := make([][]string, 0, (len(labels)+n-1)/n)
	for i := 0; i < len(labels); i += n {
		end := min(i+n, len(labels))
		rows = append(rows, labels[i:end])
	}
	return rows
}
