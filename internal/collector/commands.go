package collector

import (
	"context"
	"fmt"
)

const (
	CommandEnable   = "enable_collection"
	CommandDisable  = "disable_collection"
	CommandStatus   = "collector_status"
	CommandPing     = "ping"
	CommandShutdown = "shutdown"
)

const (
	replyEnabled      = "✅ Collection enabled."
	replyDisabled     = "❌ Collection disabled."
	replyPong         = "Pong!"
	replyShuttingDown = "Shutting down bot..."
	replyDenied       = "❌ You do not have permission to use this command."
	replyUnknown      = "❌ Unknown command."
	replyFailed       = "❌ Command failed."
)

type Command struct {
	Name        string
	Description string
	AdminOnly   bool
}

var Commands = []Command{
	{Name: CommandEnable, Description: "Enable automatic file/link collection.", AdminOnly: true},
	{Name: CommandDisable, Description: "Disable automatic file/link collection.", AdminOnly: true},
	{Name: CommandStatus, Description: "Show collector status and API endpoint."},
	{Name: CommandPing, Description: "Ping the bot."},
	{Name: CommandShutdown, Description: "Shut down the bot (admin only).", AdminOnly: true},
}

// Invocation is a slash command as seen by the listener. IsMember is false
// outside a guild.
type Invocation struct {
	Name      string
	IsMember  bool
	RoleNames []string
}

type Reply struct {
	Content   string
	Ephemeral bool
}

func lookupCommand(name string) (Command, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

func (l *Listener) isAdmin(inv Invocation) bool {
	if !inv.IsMember {
		return false
	}
	for _, role := range inv.RoleNames {
		if role == l.cfg.AdminRoleName {
			return true
		}
	}
	return false
}

func (l *Listener) HandleCommand(ctx context.Context, inv Invocation) (reply Reply) {
	defer func() {
		if reply.Content == "" {
			reply = Reply{Content: replyFailed, Ephemeral: true}
		}
	}()
	defer l.Recover("command")
	cmd, ok := lookupCommand(inv.Name)
	if !ok {
		return Reply{Content: replyUnknown, Ephemeral: true}
	}
	if cmd.AdminOnly && !l.isAdmin(inv) {
		l.logger.Warn("command denied", "command", inv.Name)
		return Reply{Content: replyDenied, Ephemeral: true}
	}

	switch cmd.Name {
	case CommandEnable:
		l.SetActive(true)
		l.logger.Info("collection enabled")
		return Reply{Content: replyEnabled}
	case CommandDisable:
		l.SetActive(false)
		l.logger.Info("collection disabled")
		return Reply{Content: replyDisabled}
	case CommandStatus:
		return Reply{Content: l.statusText()}
	case CommandPing:
		return Reply{Content: replyPong}
	case CommandShutdown:
		l.shutdownOnce.Do(func() { close(l.shutdown) })
		return Reply{Content: replyShuttingDown}
	}
	return Reply{Content: replyUnknown, Ephemeral: true}
}

func (l *Listener) statusText() string {
	status := "inactive ❌"
	if l.Active() {
		status = "active ✅"
	}
	endpoint := l.cfg.APIEndpoint
	if endpoint == "" {
		endpoint = "NOT CONFIGURED"
	}
	return fmt.Sprintf("Collector is currently **%s**.\nAPI endpoint: `%s`", status, endpoint)
}
