// Package cli is a line-oriented terminal front end. Each line is one
// chat message from the current actor; group broadcasts are printed as
// they arrive.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nathoo/dpcq/command"
	"github.com/nathoo/dpcq/config"
	"github.com/nathoo/dpcq/engine"
)

// CLI handles terminal interaction for one local group.
type CLI struct {
	Dispatcher *command.Dispatcher
	Config     *config.Config
	Actor      engine.Actor
	In         io.Reader
	Out        io.Writer
	EchoInput  bool // echo each input line after the prompt (for script playback)

	mu      sync.Mutex
	lastCmd string
}

// New creates a CLI acting as the configured user.
func New(d *command.Dispatcher, cfg *config.Config) *CLI {
	return &CLI{
		Dispatcher: d,
		Config:     cfg,
		Actor:      ActorFor(cfg, cfg.UserID, cfg.UserName),
		In:         os.Stdin,
		Out:        os.Stdout,
	}
}

// ActorFor builds the actor for a local user of the configured group.
func ActorFor(cfg *config.Config, userID, name string) engine.Actor {
	return engine.Actor{GroupID: cfg.Group, UserID: userID, Name: name, Admin: cfg.IsAdmin(userID)}
}

// Announce prints a group broadcast. It is safe to call from the
// engine's background goroutines.
func (c *CLI) Announce(groupID, text string) {
	if groupID != c.Config.Group {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(c.Out, "» %s\n", line)
	}
}

// Run loops: prompt, read, dispatch, print. It returns on EOF, /quit or
// when ctx is done.
func (c *CLI) Run(ctx context.Context) {
	c.printSystem(fmt.Sprintf("You are %s in group %s. Type help for commands, /help for the terminal.", c.Actor.Name, c.Actor.GroupID))

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") && c.isMeta(input) {
			if c.handleMeta(input) {
				return
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		if reply := c.Dispatcher.Handle(ctx, c.Actor, input); reply != "" {
			c.printLine(reply)
		}
	}
}

var metaCommands = []string{"/quit", "/exit", "/help", "/as", "/whoami"}

// isMeta separates terminal commands from slash-prefixed game commands.
func (c *CLI) isMeta(input string) bool {
	cmd := strings.Fields(input)[0]
	for _, m := range metaCommands {
		if cmd == m {
			return true
		}
	}
	return false
}

// handleMeta dispatches meta-commands. Returns true if the session should end.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		for _, line := range MetaHelp() {
			c.printLine(line)
		}

	case "/as":
		if len(parts) < 2 {
			c.printSystem("Usage: /as <user-id> [name]")
			return false
		}
		name := parts[1]
		if len(parts) > 2 {
			name = strings.Join(parts[2:], " ")
		}
		c.Actor = ActorFor(c.Config, parts[1], name)
		c.lastCmd = ""
		c.printSystem(fmt.Sprintf("Now acting as %s (%s).", c.Actor.Name, c.Actor.UserID))

	case "/whoami":
		role := "player"
		if c.Actor.Admin {
			role = "admin"
		}
		c.printSystem(fmt.Sprintf("%s (%s), %s of group %s", c.Actor.Name, c.Actor.UserID, role, c.Actor.GroupID))
	}
	return false
}

// MetaHelp lists the terminal commands shared by the CLI and the TUI.
func MetaHelp() []string {
	return []string{
		"Terminal:",
		"  /as <id> [name]  Act as another local user",
		"  /whoami          Show the current user",
		"  /quit            Exit",
		"  again (g)        Repeat your last command",
		"",
		command.Help(),
	}
}

func (c *CLI) printLine(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	c.printLine("[" + text + "]")
}
