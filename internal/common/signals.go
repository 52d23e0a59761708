package common

import (
	"os"
	"os/signal"
	"syscall"
)

// Interrupts relays Ctrl+C and SIGTERM so a long-running child (the go test
// process behind `boardbot run`) can be stopped cleanly.
type Interrupts struct {
	ch chan os.Signal
}

func NewInterrupts() *Interrupts {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return &Interrupts{ch: ch}
}

// C delivers each received signal.
func (s *Interrupts) C() <-chan os.Signal {
	return s.ch
}

func (s *Interrupts) Close() {
	signal.Stop(s.ch)
}
