package idivc

type Logger interface {
	Info(message string, module string)
	Error(string)
}

type discardLogger struct{}

func (discardLogger) Info(string, string) {}
func (discardLogger) Error(string)        {}

var logger Logger = discardLogger{}

func SetLogger(l Logger) {
	if l == nil {
		l = discardLogger{}
	}
	logger = l
}

// verbosity gates the chatty messages: 1 summaries, 2 per-container
// details, 3 queries.
var verbosity int

func SetVerbosity(v int) {
	verbosity = v
}
