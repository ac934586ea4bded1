package controller

import "github.com/gdamore/tcell/v2"

// Rune keys get their own tcell.Key values so every shortcut can live in one map.
const (
	KeyQ tcell.Key = iota + 1000
	KeyR
	KeyN
	KeyC
	KeyP
	KeyE
	KeyT
	KeySpace
)

var runeKeys = map[rune]tcell.Key{
	'q': KeyQ,
	'r': KeyR,
	'n': KeyN,
	'c': KeyC,
	'p': KeyP,
	'e': KeyE,
	't': KeyT,
	' ': KeySpace,
}

var keyNames = map[tcell.Key]string{
	KeyQ:     "q",
	KeyR:     "r",
	KeyN:     "n",
	KeyC:     "c",
	KeyP:     "p",
	KeyE:     "e",
	KeyT:     "t",
	KeySpace: "space",
}

// AsKey maps an event to the key used in the event maps.
func AsKey(evt *tcell.EventKey) tcell.Key {
	if evt.Key() != tcell.KeyRune {
		return evt.Key()
	}

	if key, ok := runeKeys[evt.Rune()]; ok {
		return key
	}

	return evt.Key()
}

func keyName(key tcell.Key) string {
	if name, ok := keyNames[key]; ok {
		return name
	}

	return tcell.KeyNames[key]
}
