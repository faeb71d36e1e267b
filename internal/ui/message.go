package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/subctl/internal/form"
	"github.com/desertthunder/subctl/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgFormLoaded
	MsgScanDone
	MsgDownloadDone
	MsgSaveDone
	MsgWebhookDone
)

type formLoaded struct {
	form *form.Form
	err  error
}

type scanDone struct {
	results []models.ScanResult
	err     error
}

// reply is a single-message server answer.
type reply struct {
	message string
	err     error
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg() Msg {
	return Msg{kind: MsgSessionChanged}
}

// formLoadedMsg is the constructor for [MsgFormLoaded]
func formLoadedMsg(f *form.Form, err error) Msg {
	return Msg{kind: MsgFormLoaded, data: formLoaded{form: f, err: err}}
}

// scanDoneMsg is the constructor for [MsgScanDone]
func scanDoneMsg(results []models.ScanResult, err error) Msg {
	return Msg{kind: MsgScanDone, data: scanDone{results: results, err: err}}
}

// downloadDoneMsg is the constructor for [MsgDownloadDone]
func downloadDoneMsg(message string, err error) Msg {
	return Msg{kind: MsgDownloadDone, data: reply{message: message, err: err}}
}

// saveDoneMsg is the constructor for [MsgSaveDone]
func saveDoneMsg(message string, err error) Msg {
	return Msg{kind: MsgSaveDone, data: reply{message: message, err: err}}
}

// webhookDoneMsg is the constructor for [MsgWebhookDone]
func webhookDoneMsg(message string, err error) Msg {
	return Msg{kind: MsgWebhookDone, data: reply{message: message, err: err}}
}
