package trace

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
)

func Location(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", line
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?", line
	}
	return fn.Name(), line
}

// Errorf reports the formatted message through logrus, tagged with the
// caller's location, and returns it as an error.
func Errorf(format string, a ...any) error {
	fn, line := Location(2)
	msg := fmt.Sprintf(format, a...)
	logrus.Error(fn, ":", line, " ", msg)
	return errors.New(msg)
}

// DbgPrint writes the formatted message to stderr when GITDB_DEBUG is set.
func DbgPrint(format string, args ...any) {
	if len(os.Getenv("GITDB_DEBUG")) == 0 {
		return
	}
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "\x1b[33m* %s\x1b[0m\n", message)
}
