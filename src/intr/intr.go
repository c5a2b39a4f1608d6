// Package intr builds the 256-entry interrupt vector table and dispatches
// exceptions and device interrupts to registered handlers, running a
// default "unhandled" policy — log and halt for exceptions, log and
// return for devices — when no handler is installed. No teacher file
// builds this (the teacher's modified Go runtime owns its own IDT);
// grounded on spec.md §4.4's gate layout. Device vectors are handed out
// by src/msi (the teacher's "a vector is an allocatable resource" pool,
// widened); this package does not import it.
package intr

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/arch/x86/x86asm"

	"strata/src/klog"
	"strata/src/seg"
)

func uintptrOf(g *gate) uintptr { return uintptr(unsafe.Pointer(g)) }

const numVectors = 256

// Named CPU exception vectors, x86-64 architectural assignment.
const (
	VecDivideError   = 0
	VecDebug         = 1
	VecNMI           = 2
	VecBreakpoint    = 3
	VecOverflow      = 4
	VecBoundRange    = 5
	VecInvalidOpcode = 6
	VecDeviceNA      = 7
	VecDoubleFault   = 8
	VecInvalidTSS    = 10
	VecSegmentNP     = 11
	VecStackFault    = 12
	VecGeneralProt   = 13
	VecPageFault     = 14
	VecFPUError      = 16
	VecAlignCheck    = 17
	VecMachineCheck  = 18
	VecSIMDError     = 19
)

// hasErrorCode reports whether the CPU pushes an error code for this
// exception, per the architectural definition.
func hasErrorCode(vector int) bool {
	switch vector {
	case 8, VecInvalidTSS, VecSegmentNP, VecStackFault, VecGeneralProt, VecPageFault, VecAlignCheck:
		return true
	}
	return false
}

// istFor assigns the seven dedicated interrupt-stack-table categories
// spec.md §4.4 names to the specific exceptions that need them: vectors
// whose handler cannot safely assume a valid current stack.
var istFor = map[int]seg.ISTIndex{
	VecDebug:        seg.ISTDebug,
	VecNMI:          seg.ISTNMI,
	VecDoubleFault:  seg.ISTDoubleFault,
	VecMachineCheck: seg.ISTMachineCheck,
	VecStackFault:   seg.ISTStackFault,
	VecGeneralProt:  seg.ISTGeneralProtection,
	VecPageFault:    seg.ISTGeneric,
}

// CLI is the hook into the processor's interrupt-enable flag: cli/sti on
// x86-64. WithIRQDisabled uses it to bracket critical sections that spec.md
// §5 requires run non-preemptibly (ready-queue and current-task mutation,
// the frame bitmap, filesystem metadata writes).
type CLI interface {
	Disable()
	Enable()
}

var cli CLI

// SetCLI installs the processor's interrupt-enable hook. Left nil, tests
// run WithIRQDisabled's callback with no effect on any flag.
func SetCLI(c CLI) { cli = c }

// WithIRQDisabled disables interrupts, runs fn, then restores them
// unconditionally — it never nests (the callback must not itself call
// WithIRQDisabled), matching the single-core, non-reentrant critical
// section spec.md §5 describes.
func WithIRQDisabled(fn func()) {
	if cli != nil {
		cli.Disable()
		defer cli.Enable()
	}
	fn()
}

// Frame_t is the saved-register frame a trampoline hands to every
// handler: general-purpose registers pushed in fixed order, the vector
// number, the architectural error code (0 when the exception carries
// none), and the hardware-pushed iret frame.
type Frame_t struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	Rbp, Rdi, Rsi, Rdx, Rcx, Rbx, Rax    uint64
	Vector, ErrorCode                   uint64
	Rip, Cs, Rflags, Rsp, Ss            uint64
}

// Handler processes one interrupt or exception.
type Handler func(f *Frame_t)

// gate is the hardware 16-byte IDT gate descriptor, as two 64-bit words.
type gate struct{ lo, hi uint64 }

func buildGate(offset uint64, selector seg.Selector, ist seg.ISTIndex, present bool) gate {
	const typeInterruptGate = 0xE // 64-bit interrupt gate
	var p uint64
	if present {
		p = 1 << 15
	}
	attr := typeInterruptGate | p
	lo := (offset & 0xffff) |
		(uint64(selector) << 16) |
		(uint64(ist) << 32) |
		(attr << 40) |
		(((offset >> 16) & 0xffff) << 48)
	hi := offset >> 32
	return gate{lo: lo, hi: hi}
}

// CodeReader reads up to len(dst) bytes of executable memory starting at
// virtual address rip, for disassembling the faulting instruction in the
// default exception handler. Returns the number of bytes read.
type CodeReader func(rip uint64, dst []byte) int

// Table_t is one IDT plus its registered handlers.
type Table_t struct {
	sync.Mutex
	handlers [numVectors]Handler
	gates    [numVectors]gate
	code     seg.Selector
	codeRead CodeReader
}

// New builds an empty vector table. codeSel is the kernel code segment
// selector every gate points through.
func New(codeSel seg.Selector) *Table_t {
	return &Table_t{code: codeSel}
}

// SetCodeReader installs the function used to fetch bytes at a faulting
// RIP for disassembly. Optional — without it, fatal log lines omit the
// decoded instruction.
func (t *Table_t) SetCodeReader(r CodeReader) {
	t.Lock()
	defer t.Unlock()
	t.codeRead = r
}

// InstallHandler registers fn for vector, rebuilding its gate to point at
// handlerEntry (the trampoline's low-level entry point for this vector).
func (t *Table_t) InstallHandler(vector int, handlerEntry uintptr, fn Handler) bool {
	if vector < 0 || vector >= numVectors {
		return false
	}
	t.Lock()
	defer t.Unlock()
	ist := istFor[vector]
	t.handlers[vector] = fn
	t.gates[vector] = buildGate(uint64(handlerEntry), t.code, ist, true)
	return true
}

// InstallException is InstallHandler restricted to the CPU exception
// range (0..31), spec.md §6's `install_exception_handler` contract.
func (t *Table_t) InstallException(vector int, handlerEntry uintptr, fn Handler) bool {
	if vector < 0 || vector > 31 {
		return false
	}
	return t.InstallHandler(vector, handlerEntry, fn)
}

// Remove clears the handler for vector; the gate still points at the
// trampoline, which falls through to the default policy.
func (t *Table_t) Remove(vector int) {
	if vector < 0 || vector >= numVectors {
		return
	}
	t.Lock()
	defer t.Unlock()
	t.handlers[vector] = nil
}

// Base returns the table's base address and byte limit for loading into
// IDTR, matching seg.Table_t's Install shape.
func (t *Table_t) Base() (base uintptr, limit uint16) {
	return uintptrOf(&t.gates[0]), uint16(len(t.gates)*16 - 1)
}

// Dispatch is called by the low-level trampoline with the saved frame. It
// runs the registered handler, or the default policy when none is
// installed.
func (t *Table_t) Dispatch(f *Frame_t) {
	t.Lock()
	h := t.handlers[f.Vector]
	reader := t.codeRead
	t.Unlock()

	if h != nil {
		h(f)
		return
	}
	t.unhandled(f, reader)
}

// unhandled implements spec.md §7's default policy: CPU exceptions with
// no installed handler render an informational log line (disassembling
// the faulting instruction when a code reader is available) and halt the
// processor indefinitely with interrupts disabled. Device vectors with no
// handler are logged and otherwise ignored.
func (t *Table_t) unhandled(f *Frame_t, reader CodeReader) {
	vec := int(f.Vector)
	if vec >= 32 {
		klog.Warnf("unhandled interrupt vector %d, rip=%#x", vec, f.Rip)
		return
	}

	asm := "<no code reader installed>"
	if reader != nil {
		buf := make([]byte, 15) // longest possible x86 instruction
		if n := reader(f.Rip, buf); n > 0 {
			if inst, err := x86asm.Decode(buf[:n], 64); err == nil {
				asm = x86asm.GNUSyntax(inst, f.Rip, nil)
			} else {
				asm = fmt.Sprintf("<decode error: %v>", err)
			}
		}
	}
	klog.Fatalf("fatal exception %d at rip=%#x errcode=%#x cs=%#x rflags=%#x: %s",
		vec, f.Rip, f.ErrorCode, f.Cs, f.Rflags, asm)
}
