package tasks

// Task phase enumeration
type Phase int

const (
	Idle Phase = iota
	Running
	Finished
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Error:
		return "error"
	default:
		return ""
	}
}

// Level classifies a status line for display.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// Source tells server log lines apart from diagnostics produced by the client.
type Source int

const (
	SourceServer Source = iota
	SourceClient
)
