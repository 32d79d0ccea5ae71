package notifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Command is a parsed chat command, e.g. "/stats@CycleBot 30" → {Name: "stats", Args: ["30"]}.
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a slash command. The bot-name suffix Telegram appends
// in group chats is dropped and the name is lower-cased.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}

// CommandFunc answers one command. An empty reply sends nothing.
type CommandFunc func(ctx context.Context, cmd Command) (string, error)

type route struct {
	help string
	fn   CommandFunc
}

// Dispatcher routes parsed commands to registered handlers.
type Dispatcher struct {
	routes map[string]route
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: make(map[string]route)}
}

// Handle registers fn under name (without the leading slash).
func (d *Dispatcher) Handle(name, help string, fn CommandFunc) {
	d.routes[strings.ToLower(name)] = route{help: help, fn: fn}
}

// Dispatch answers text. Unknown commands and plain text get the help listing;
// handler errors are reported back to the chat.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) string {
	cmd, ok := ParseCommand(text)
	if !ok {
		return d.Help()
	}
	if cmd.Name == "help" || cmd.Name == "start" {
		return d.Help()
	}
	r, ok := d.routes[cmd.Name]
	if !ok {
		return fmt.Sprintf("Unknown command /%s\n\n%s", cmd.Name, d.Help())
	}
	reply, err := r.fn(ctx, cmd)
	if err != nil {
		return fmt.Sprintf("❌ /%s failed: %v", cmd.Name, err)
	}
	return reply
}

// Help lists the registered commands alphabetically.
func (d *Dispatcher) Help() string {
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range names {
		b.WriteString(fmt.Sprintf("/%s - %s\n", name, d.routes[name].help))
	}
	b.WriteString("/help - this message")
	return b.String()
}
