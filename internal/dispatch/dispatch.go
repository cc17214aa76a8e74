package dispatch

import (
	"context"
	"strings"
	"time"

	"coronabot/internal/errs"
	"coronabot/internal/providers"
)

// Field is one labeled numeric value in a payload. Kept as a slice element
// rather than a map entry so renderers show fields in a stable order.
type Field struct {
	Name  string
	Value string
}

// Message is the payload handed to the chat platform adapter. How it turns
// into an embed, a plain message or anything else is the adapter's problem.
type Message struct {
	Title     string
	Body      string
	Fields    []Field
	Changes   map[string]string
	Timestamp time.Time
}

// Invocation identifies who triggered a command and where the reply goes.
type Invocation struct {
	GuildID   int64
	ChannelID int64
	UserID    int64
}

// Dispatcher is the chat-platform boundary. The bot core only ever needs
// these two capabilities: deliver a payload to a channel, and wait for a
// follow-up reply from a specific user.
type Dispatcher interface {
	// Send delivers msg to the channel. Unknown channel or guild is an
	// error the caller is expected to tolerate.
	Send(ctx context.Context, channelID int64, msg *Message) error

	// Prompt waits up to timeout for a message in the channel from the
	// given user for which accept returns true, and returns its content.
	Prompt(ctx context.Context, channelID, userID int64, accept func(string) bool, timeout time.Duration) (string, error)
}

// LogDispatcher writes payloads to the log instead of a chat platform.
// Used by the standalone binary; a real platform adapter replaces it.
type LogDispatcher struct {
	logger providers.Logger
}

func NewLogDispatcher(logger providers.Logger) Dispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, channelID int64, msg *Message) error {
	var sb strings.Builder
	sb.WriteString(msg.Title)
	for _, f := range msg.Fields {
		sb.WriteString(" | ")
		sb.WriteString(f.Name)
		sb.WriteString("=")
		sb.WriteString(f.Value)
	}
	d.logger.Infof(providers.TypeCmd, "[channel %d] %s", channelID, sb.String())
	return nil
}

func (d *LogDispatcher) Prompt(_ context.Context, channelID, _ int64, _ func(string) bool, _ time.Duration) (string, error) {
	return "", errs.New(errs.NotFound, "no interactive session available")
}
