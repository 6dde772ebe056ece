// Package output implements the channel through which every execution unit
// emits text. Messages are queued without blocking the sender and written
// in enqueue order by a single consumer goroutine.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/squidvm/squid/errz"
)

// ErrClosed is returned when sending on a channel that has been closed.
var ErrClosed = errors.New("output channel closed")

// Kind is the kind of a message.
type Kind uint8

const (
	// Print writes text to stdout without a trailing newline.
	Print Kind = iota
	// PrintLine writes text to stdout followed by a newline.
	PrintLine
	Warn
	Error
	Trace
	// Dev messages are only written when the channel runs in dev mode.
	Dev
	// End stops the consumer.
	End
)

func (k Kind) String() string {
	switch k {
	case Print:
		return "print"
	case PrintLine:
		return "println"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Trace:
		return "trace"
	case Dev:
		return "dev"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Message is one unit of output.
type Message struct {
	Kind Kind
	Text string
	// Unit names the execution unit that produced the message, if any.
	Unit string
}

// Config configures a channel.
type Config struct {
	// Stdout receives Print and PrintLine messages. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives log messages. Defaults to os.Stderr.
	Stderr io.Writer
	// Level is the minimum zerolog level written, "trace" when empty.
	Level string
	// Dev enables Dev messages.
	Dev bool
	// NoColor disables colored log output.
	NoColor bool
}

// Channel is an unbounded multi-producer, single-consumer message queue.
type Channel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Message
	closed bool
	done   chan struct{}

	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger
	dev    bool
}

// Start validates cfg and starts the consumer goroutine.
func Start(cfg Config) (*Channel, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Level == "" {
		cfg.Level = zerolog.LevelTraceValue
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, errz.Wrap(errz.ErrConfig, err, "unable to start output channel").WithCode(errz.PrintThread)
	}
	writer := zerolog.ConsoleWriter{
		Out:          cfg.Stderr,
		NoColor:      cfg.NoColor,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	c := &Channel{
		done:   make(chan struct{}),
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		log:    zerolog.New(writer).Level(level),
		dev:    cfg.Dev,
	}
	c.cond = sync.NewCond(&c.mu)
	go c.consume()
	return c, nil
}

// Send queues m. It never blocks. After Close the message is written
// directly to stderr and ErrClosed is returned.
func (c *Channel) Send(m Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fmt.Fprintf(c.stderr, "Error sending message: %v\n%s\n", ErrClosed, m.Text)
		return ErrClosed
	}
	c.queue = append(c.queue, m)
	c.mu.Unlock()
	c.cond.Signal()
	return nil
}

// Close sends End and waits for the consumer to drain the queue. It is safe
// to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.queue = append(c.queue, Message{Kind: End})
		c.cond.Signal()
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Channel) consume() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 {
			c.cond.Wait()
		}
		batch := c.queue
		c.queue = nil
		c.mu.Unlock()
		for _, m := range batch {
			if m.Kind == End {
				return
			}
			c.write(m)
		}
	}
}

func (c *Channel) write(m Message) {
	var event *zerolog.Event
	switch m.Kind {
	case Print:
		io.WriteString(c.stdout, m.Text)
		return
	case PrintLine:
		io.WriteString(c.stdout, m.Text+"\n")
		return
	case Warn:
		event = c.log.Warn()
	case Error:
		event = c.log.Error()
	case Trace:
		event = c.log.Trace()
	case Dev:
		if !c.dev {
			return
		}
		event = c.log.Debug()
	default:
		return
	}
	if m.Unit != "" {
		event = event.Str("unit", m.Unit)
	}
	event.Msg(m.Text)
}

func (c *Channel) Print(text string) error {
	return c.Send(Message{Kind: Print, Text: text})
}

func (c *Channel) Println(text string) error {
	return c.Send(Message{Kind: PrintLine, Text: text})
}

func (c *Channel) Warn(text string) error {
	return c.Send(Message{Kind: Warn, Text: text})
}

func (c *Channel) Error(text string) error {
	return c.Send(Message{Kind: Error, Text: text})
}

func (c *Channel) Trace(text string) error {
	return c.Send(Message{Kind: Trace, Text: text})
}

func (c *Channel) Dev(text string) error {
	return c.Send(Message{Kind: Dev, Text: text})
}
