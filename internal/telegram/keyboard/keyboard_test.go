package keyboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func btns(n int) []tele.Btn {
	markup := &tele.ReplyMarkup{}
	out := make([]tele.Btn, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, markup.Data(fmt.Sprintf("b%d", i), fmt.Sprintf("key%d", i)))
	}
	return out
}

func rowLens(rows [][]tele.Btn) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, len(r))
	}
	return out
}

func TestChunkEvenAndRagged(t *testing.T) {
	assert.Equal(t, []int{5, 5}, rowLens(Chunk(btns(10), 5)))
	assert.Equal(t, []int{5, 2}, rowLens(Chunk(btns(7), 5)))
	assert.Equal(t, []int{3}, rowLens(Chunk(btns(3), 5)))
	assert.Empty(t, Chunk(nil, 5))
}

func TestChunkSingleColumn(t *testing.T) {
	assert.Equal(t, []int{1, 1, 1}, rowLens(Chunk(btns(3), 1)))
}

func TestLayoutHeaderFooter(t *testing.T) {
	markup := &tele.ReplyMarkup{}
	header := []tele.Btn{markup.Data("help", "help")}
	footer := []tele.Btn{markup.Data("refresh", "check_L08")}

	rows := Layout(btns(5), 5, header, footer)
	require.Equal(t, []int{1, 5, 1}, rowLens(rows))
	assert.Equal(t, "help", rows[0][0].Text)
	assert.Equal(t, "refresh", rows[2][0].Text)
}

func TestLayoutOmitsEmptyHeaderFooter(t *testing.T) {
	rows := Layout(btns(4), 2, nil, nil)
	assert.Equal(t, []int{2, 2}, rowLens(rows))

	rows = Layout(btns(4), 2, []tele.Btn{}, []tele.Btn{})
	assert.Equal(t, []int{2, 2}, rowLens(rows))
}

func TestMarkupPreservesShape(t *testing.T) {
	rows := Layout(btns(7), 5, nil, nil)
	markup := Markup(rows)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 5)
	assert.Len(t, markup.InlineKeyboard[1], 2)
}
