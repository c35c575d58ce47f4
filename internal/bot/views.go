package bot

import (
	"fmt"
	"strings"

	"laundrybot/internal/laundry"
	"laundrybot/internal/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Emphasis markers, one per machine state.
const (
	markerAvailable     = "✅"
	markerInUse         = "❌"
	markerFinishingSoon = "⏳"
)

const levelGridColumns = 5

// View is one renderable payload: message text plus inline controls.
// It is submitted unchanged whether the reply is a fresh message or an
// edit of the message that carried the pressed control.
type View struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// viewBuilder renders views for one configured building. It performs no
// I/O; every status it renders is passed in.
type viewBuilder struct {
	building laundry.Building
}

func newViewBuilder(b laundry.Building) *viewBuilder {
	return &viewBuilder{building: b}
}

func stateMarker(s laundry.MachineState) string {
	switch s {
	case laundry.StateAvailable:
		return markerAvailable
	case laundry.StateInUse:
		return markerInUse
	default:
		return markerFinishingSoon
	}
}

// LevelPicker renders one select control per configured level in a single
// column.
func (v *viewBuilder) LevelPicker() View {
	base := &tele.ReplyMarkup{}
	var buttons []tele.Btn
	for _, l := range v.building.Levels() {
		buttons = append(buttons, base.Data(fmt.Sprintf("Level %s", l), SelectToken(l)))
	}
	markup := keyboard.Markup(keyboard.Layout(buttons, 1, nil, nil))

	var b strings.Builder
	b.WriteString("*Hello!*\n\n")
	b.WriteString("I track the laundry machines in this building. ")
	b.WriteString("Pick your laundry room level and I will remember it:")
	return View{Text: b.String(), Markup: markup}
}

// LevelStatus renders the machine list for one observed level with the
// full navigation grid.
func (v *viewBuilder) LevelStatus(status *laundry.LevelStatus) View {
	var b strings.Builder
	fmt.Fprintf(&b, "*Level %s laundry room*\n", status.Level)
	for _, m := range status.Machines {
		fmt.Fprintf(&b, "\n%s %s", stateMarker(m.State), m.Machine.Name)
	}
	fmt.Fprintf(&b, "\n\nChecked at %s", status.ObservedAt.Format("15:04:05"))
	return View{Text: b.String(), Markup: v.navigation(status.Level)}
}

// Help renders the static usage text with a single control back to the
// level the user was viewing.
func (v *viewBuilder) Help(returnLevel laundry.Level) View {
	base := &tele.ReplyMarkup{}
	back := base.Data(fmt.Sprintf("Back to Level %s", returnLevel), ViewToken(returnLevel))
	markup := keyboard.Markup(keyboard.Layout([]tele.Btn{back}, 1, nil, nil))

	var b strings.Builder
	b.WriteString("*How this works*\n\n")
	b.WriteString(markerAvailable + " machine is free\n")
	b.WriteString(markerInUse + " cycle is running\n")
	b.WriteString(markerFinishingSoon + " cycle is almost done\n\n")
	b.WriteString("Tap a level to see its machines. ")
	b.WriteString("Send /start to pick your laundry room again.")
	return View{Text: b.String(), Markup: markup}
}

// Degraded renders the apology shown when the status backend fails. The
// navigation controls stay intact so the user can retry or move on.
func (v *viewBuilder) Degraded(level laundry.Level) View {
	var b strings.Builder
	fmt.Fprintf(&b, "*Level %s laundry room*\n\n", level)
	b.WriteString("Sorry, I could not reach the laundry machines just now. ")
	b.WriteString("Please try again in a moment.")
	return View{Text: b.String(), Markup: v.navigation(level)}
}

// navigation builds the shared control layout: the level grid with the
// current level distinguished, a help header and a refresh footer.
func (v *viewBuilder) navigation(current laundry.Level) *tele.ReplyMarkup {
	base := &tele.ReplyMarkup{}
	var grid []tele.Btn
	for _, l := range v.building.Levels() {
		label := fmt.Sprintf("L%s", l)
		if l == current {
			label = fmt.Sprintf("· L%s ·", l)
		}
		grid = append(grid, base.Data(label, ViewToken(l)))
	}
	header := []tele.Btn{base.Data("Help", HelpToken())}
	footer := []tele.Btn{base.Data("🔄 Refresh", ViewToken(current))}
	return keyboard.Markup(keyboard.Layout(grid, levelGridColumns, header, footer))
}
