package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.Notifier = (*Notifier)(nil)

// Notifier prints user-facing messages one per line.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Info(msg string) {
	n.print("", msg)
}

func (n *Notifier) Warn(msg string) {
	n.print("warning: ", msg)
}

func (n *Notifier) Error(msg string, err error) {
	if err != nil && msg == "" {
		msg = err.Error()
	}
	n.print("error: ", msg)
}

func (n *Notifier) print(prefix, msg string) {
	if msg == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s%s\n", prefix, msg)
}

// Confirm asks prompt on out and reads a y/yes answer from in. Anything
// else, including a read failure, is a no.
func Confirm(in io.Reader, out io.Writer) port.ConfirmFunc {
	r := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
