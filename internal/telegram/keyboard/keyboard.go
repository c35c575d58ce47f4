// Package keyboard arranges inline buttons into reply markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// Layout partitions buttons into consecutive rows of up to columns
// buttons (the last row may be shorter), then prepends header and appends
// footer as their own rows when non-empty. Callers must supply a positive
// column count; behavior for columns <= 0 is the caller's problem.
func Layout(buttons []tele.Btn, columns int, header, footer []tele.Btn) [][]tele.Btn {
	rows := Chunk(buttons, columns)
	if len(header) > 0 {
		rows = append([][]tele.Btn{header}, rows...)
	}
	if len(footer) > 0 {
		rows = append(rows, footer)
	}
	return rows
}

// Chunk splits a flat list of buttons into rows with up to n buttons per
// row. n <= 1 yields one button per row.
func Chunk(buttons []tele.Btn, n int) [][]tele.Btn {
	if n <= 1 {
		rows := make([][]tele.Btn, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, []tele.Btn{b})
		}
		return rows
	}
	var rows [][]tele.Btn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

// Markup converts button rows into an inline keyboard markup.
func Markup(rows [][]tele.Btn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, *b.Inline())
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}
