package sched

import "errors"

// Status is the result code of a kernel operation. Every failing operation
// returns an error wrapping one of these values, so callers can test with
// errors.Is(err, sched.Busy) or extract it with Code.
type Status uint8

const (
	Success       Status = iota // operation completed
	Bounds                      // priority outside the task table
	Busy                        // slot occupied, or task already time triggered
	NoTask                      // no such task
	BufferFault                 // buffer over- or underflow
	WrongParam                  // parameter not valid for this policy
	SemaphoreFail               // semaphore operation failed (timeout)
	OutOfMemory                 // no thread context block left
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Bounds:
		return "bounds"
	case Busy:
		return "busy"
	case NoTask:
		return "no task"
	case BufferFault:
		return "buffer fault"
	case WrongParam:
		return "wrong parameter"
	case SemaphoreFail:
		return "semaphore failure"
	case OutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

func (s Status) Error() string { return s.String() }

// Code returns the Status carried by err: Success for nil, and WrongParam for
// errors that do not originate in this package.
func Code(err error) Status {
	if err == nil {
		return Success
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return WrongParam
}
