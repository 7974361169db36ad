package runner

import (
	"fmt"
	"runtime/debug"
)

// Fault is an unexpected termination of a step or hook: a panic, or a
// runtime.Goexit such as the one testing.T.FailNow performs.
type Fault struct {
	Value  any // recovered panic value; nil for Goexit
	Goexit bool
	Stack  []byte
}

func (f *Fault) Error() string {
	if f.Goexit {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("panic: %v", f.Value)
}

// Unwrap exposes a panic value that is itself an error.
func (f *Fault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// protect runs fn on its own goroutine and blocks until it is done. A panic
// or Goexit inside fn is returned as a *Fault instead of unwinding the
// caller. Only one goroutine does work at a time.
func protect(fn func() error) error {
	done := make(chan error, 1)
	go func() {
		returned := false
		defer func() {
			if returned {
				return
			}
			if r := recover(); r != nil {
				done <- &Fault{Value: r, Stack: debug.Stack()}
				return
			}
			done <- &Fault{Goexit: true}
		}()
		err := fn()
		returned = true
		done <- err
	}()
	return <-done
}
