package fabsim

import (
	"context"
	"strings"
	"sync"

	"github.com/ohsu-comp-bio/fabuq/logger"
)

func testLogger() *logger.Logger {
	l := logger.New("test")
	l.Discard()
	return l
}

type call struct {
	Command   string
	Arguments string
	Machine   string
}

// fakeInvoker records invocations and answers them with handler.
type fakeInvoker struct {
	mtx     sync.Mutex
	calls   []call
	handler func(c call) ([]byte, bool)
}

func (f *fakeInvoker) Invoke(ctx context.Context, command, arguments, machine string) ([]byte, bool) {
	f.mtx.Lock()
	c := call{command, arguments, machine}
	f.calls = append(f.calls, c)
	f.mtx.Unlock()
	if f.handler == nil {
		return nil, true
	}
	return f.handler(c)
}

func (f *fakeInvoker) count(command string) int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Command == command {
			n++
		}
	}
	return n
}

// statusReport builds "stat" output with the usual two header lines.
func statusReport(rows ...string) []byte {
	lines := append([]string{
		"JOBID     STATE     NAME",
		"--------  --------  ----",
	}, rows...)
	return []byte(strings.Join(lines, "\n") + "\n")
}
