package accounts

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface this package needs. Host
// applications plug in their own implementation.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Mailer delivers outbound account email. The transport (SMTP, an API,
// a queue) is supplied by the host application.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// Email is an outbound message ready for transport.
type Email struct {
	To       string
	From     string
	Subject  string
	HTMLBody string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
