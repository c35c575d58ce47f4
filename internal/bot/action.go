// Package bot contains the conversation logic: inbound action parsing,
// per-user session transitions and view rendering.
package bot

import (
	"fmt"
	"strconv"
	"strings"

	"laundrybot/internal/laundry"
)

// ActionKind enumerates the closed set of inbound actions.
type ActionKind int

const (
	// ActionStart opens the conversation: pinned level, or the picker.
	ActionStart ActionKind = iota
	// ActionSelectLevel pins a level and shows its status.
	ActionSelectLevel
	// ActionViewLevel shows a level's status without repinning.
	ActionViewLevel
	// ActionShowHelp shows the help view scoped to the active level.
	ActionShowHelp
)

// Action is one classified inbound action. Level is meaningful only for
// ActionSelectLevel and ActionViewLevel.
type Action struct {
	Kind  ActionKind
	Level laundry.Level
}

// Wire tokens carried in control callback data.
const (
	tokenSelectPrefix = "set_L"
	tokenViewPrefix   = "check_L"
	tokenHelp         = "help"
	tokenStart        = "start"
)

// SelectToken builds the callback token that pins a level.
func SelectToken(l laundry.Level) string {
	return fmt.Sprintf("%s%02d", tokenSelectPrefix, int(l))
}

// ViewToken builds the callback token that views a level without pinning.
func ViewToken(l laundry.Level) string {
	return fmt.Sprintf("%s%02d", tokenViewPrefix, int(l))
}

// HelpToken returns the bare show-help callback token.
func HelpToken() string {
	return tokenHelp
}

// ParseToken classifies a raw callback token. It accepts the level-bearing
// forms set_Lnn and check_Lnn plus the bare help and start tokens; anything
// else reports false so the caller can fall through to its unknown-callback
// handler.
func ParseToken(token string) (Action, bool) {
	token = strings.TrimSpace(token)
	switch token {
	case tokenStart:
		return Action{Kind: ActionStart}, true
	case tokenHelp:
		return Action{Kind: ActionShowHelp}, true
	}
	if rest, ok := strings.CutPrefix(token, tokenSelectPrefix); ok {
		if l, ok := parseLevel(rest); ok {
			return Action{Kind: ActionSelectLevel, Level: l}, true
		}
		return Action{}, false
	}
	if rest, ok := strings.CutPrefix(token, tokenViewPrefix); ok {
		if l, ok := parseLevel(rest); ok {
			return Action{Kind: ActionViewLevel, Level: l}, true
		}
		return Action{}, false
	}
	return Action{}, false
}

func parseLevel(s string) (laundry.Level, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return laundry.Level(n), true
}
