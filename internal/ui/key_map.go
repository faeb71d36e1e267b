package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	scan     key.Binding
	download key.Binding
	save     key.Binding
	webhook  key.Binding
	dismiss  key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		scan:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		save:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save config")),
		webhook:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test webhook")),
		dismiss:  key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.scan, k.download, k.save, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.scan, k.download},
		{k.save, k.webhook},
		{k.help, k.quit},
	}
}

// setActions enables the task bindings only while the session accepts actions.
func (k *keyMap) setActions(enabled bool) {
	k.scan.SetEnabled(enabled)
	k.download.SetEnabled(enabled)
}
