package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every [key.Binding] of the weekplan browser.
type keyMap struct {
	up, down, enter, back key.Binding
	sync, open, remove    key.Binding
	shop                  key.Binding
	yes, no               key.Binding
	restart, quit         key.Binding
}

func bind(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

func newKeyMap() keyMap {
	k := keyMap{
		enter:   bind("select", "enter"),
		back:    bind("back", "esc"),
		sync:    bind("sync", "s"),
		open:    bind("open", "o"),
		remove:  bind("remove from plan", "d"),
		shop:    bind("add to shopping list", "a"),
		yes:     bind("yes", "y"),
		no:      bind("no", "n"),
		restart: bind("back to plan", "r"),
		quit:    bind("quit", "q", "ctrl+c"),
	}
	k.up = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up"))
	k.down = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down"))
	return k
}

// forView returns the bindings shown in the help line of view.
func (k keyMap) forView(view ViewState) []key.Binding {
	switch view {
	case DayListView:
		return []key.Binding{k.enter, k.sync, k.quit}
	case RecipeListView:
		return []key.Binding{k.open, k.shop, k.remove, k.back, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no, k.quit}
	case ResultView:
		return []key.Binding{k.restart, k.sync, k.quit}
	default:
		return []key.Binding{k.quit}
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.sync, k.open, k.remove, k.shop},
		{k.yes, k.no, k.restart, k.quit},
	}
}
