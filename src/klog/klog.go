// Package klog is the kernel's single logging sink: a fixed-capacity ring
// buffer drained by the console/serial collaborators, adapted from the
// teacher's circbuf package (src/circbuf) with the user-copy plumbing
// (fdops.Userio_i, page-backed lazy allocation) stripped out, since every
// producer and consumer here is kernel code operating on a plain byte slice.
package klog

import (
	"fmt"
	"sync"
)

// Level orders the severity of a log record.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "?"
	}
}

// ring is a fixed-capacity circular byte buffer. head and tail are
// monotonically increasing byte counts, as in circbuf.Circbuf_t; the
// buffer index is always the count modulo its capacity.
type ring struct {
	sync.Mutex
	buf        []uint8
	head, tail int
}

func newRing(cap int) *ring {
	return &ring{buf: make([]uint8, cap)}
}

func (r *ring) full() bool { return r.head-r.tail == len(r.buf) }

// write appends s, overwriting the oldest bytes first when the ring is
// full rather than blocking or failing — a log sink must never stall its
// caller.
func (r *ring) write(s string) {
	r.Lock()
	defer r.Unlock()
	for i := 0; i < len(s); i++ {
		if r.full() {
			r.tail++
		}
		r.buf[r.head%len(r.buf)] = s[i]
		r.head++
	}
}

// Snapshot returns the currently buffered bytes in order, oldest first.
func (r *ring) Snapshot() []byte {
	r.Lock()
	defer r.Unlock()
	n := r.head - r.tail
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.tail+i)%len(r.buf)]
	}
	return out
}

const defaultCapacity = 64 * 1024

var (
	mu       sync.Mutex
	seq      uint64
	buf      = newRing(defaultCapacity)
	sink     func(string) // optional secondary sink, e.g. a serial port write
	haltFunc func()        // installed by cmd/kernel (where it panics) or by tests
)

// SetSink installs a function called with every formatted line, in addition
// to the ring buffer — the console/serial device collaborators hook in
// here.
func SetSink(fn func(string)) {
	mu.Lock()
	defer mu.Unlock()
	sink = fn
}

// SetHalt installs the processor-halt primitive used by Fatal. With none
// installed, Fatal panics instead of spinning forever.
func SetHalt(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	haltFunc = fn
}

func emit(lvl Level, format string, args ...interface{}) string {
	mu.Lock()
	seq++
	n := seq
	mu.Unlock()

	line := fmt.Sprintf("[%08d] %-5s %s\n", n, lvl, fmt.Sprintf(format, args...))
	buf.write(line)

	mu.Lock()
	s := sink
	mu.Unlock()
	if s != nil {
		s(line)
	}
	return line
}

func Debugf(format string, args ...interface{}) { emit(Debug, format, args...) }
func Infof(format string, args ...interface{})  { emit(Info, format, args...) }
func Warnf(format string, args ...interface{})  { emit(Warn, format, args...) }
func Errorf(format string, args ...interface{}) { emit(Error, format, args...) }

// Fatalf renders the line, then calls the installed halt primitive and
// spins forever if it returns; with none installed it panics. It never
// returns. It does not disable interrupts itself, and the primitive
// cmd/kernel installs panics rather than executing a halt instruction.
func Fatalf(format string, args ...interface{}) {
	emit(Fatal, format, args...)
	mu.Lock()
	h := haltFunc
	mu.Unlock()
	if h != nil {
		h()
		for {
		}
	}
	panic(fmt.Sprintf(format, args...))
}

// Snapshot returns the buffered log text, oldest first — used by the
// /dev/stat collaborator contract and by tests.
func Snapshot() []byte {
	return buf.Snapshot()
}
