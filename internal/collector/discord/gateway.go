// Package discord binds the collector to a Discord bot session.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/frahmantamala/filehub/internal/collector"
	"github.com/frahmantamala/filehub/internal/ingest"
)

const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Gateway struct {
	token   string
	logger  *slog.Logger
	session *discordgo.Session
	removes []func()
}

func NewGateway(token string, logger *slog.Logger) (*Gateway, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Gateway{token: token, logger: logger}, nil
}

func (g *Gateway) Open(ctx context.Context, l *collector.Listener) error {
	session, err := discordgo.New("Bot " + g.token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents
	g.session = session

	g.removes = append(g.removes,
		// discordgo runs each handler on its own goroutine.
		session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			defer l.Recover("ready")
			g.logger.Info("logged in", "user", r.User.Username, "user_id", r.User.ID)
			_ = l.HandleReady(ctx, func(ctx context.Context, commands []collector.Command) error {
				return registerCommands(s, r.User.ID, commands)
			})
		}),
		session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
			defer l.Recover("message")
			if m.Message == nil || m.Author == nil {
				return
			}
			l.HandleMessage(ctx, messageFromEvent(m.Message, channelName(s, m.ChannelID)))
		}),
		session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			defer l.Recover("command")
			if i.Type != discordgo.InteractionApplicationCommand {
				return
			}
			reply := l.HandleCommand(ctx, invocationFromInteraction(i.Interaction, roleNamer(s)))
			if err := s.InteractionRespond(i.Interaction, toResponse(reply)); err != nil {
				g.logger.Error("failed to respond to command", "command", i.ApplicationCommandData().Name, "error", err)
			}
		}),
	)

	if err := session.Open(); err != nil {
		g.detach()
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (g *Gateway) detach() {
	for _, remove := range g.removes {
		remove()
	}
	g.removes = nil
}

func (g *Gateway) Close() error {
	if g.session == nil {
		return nil
	}
	g.detach()
	return g.session.Close()
}

func registerCommands(s *discordgo.Session, appID string, commands []collector.Command) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, "", toApplicationCommands(commands))
	return err
}

func toApplicationCommands(commands []collector.Command) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(commands))
	for _, c := range commands {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        c.Name,
			Description: c.Description,
		})
	}
	return out
}

func channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch.Name
	}
	if ch, err := s.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

func roleNamer(s *discordgo.Session) func(guildID, roleID string) string {
	return func(guildID, roleID string) string {
		if role, err := s.State.Role(guildID, roleID); err == nil {
			return role.Name
		}
		return ""
	}
}

func messageFromEvent(m *discordgo.Message, channel string) ingest.Message {
	msg := ingest.Message{
		ID:          m.ID,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: channel,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
	}
	if msg.ChannelName == "" && m.GuildID == "" {
		msg.ChannelName = "DM"
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorBot = m.Author.Bot
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, ingest.Attachment{
			Filename:    a.Filename,
			URL:         a.URL,
			ContentType: a.ContentType,
			Size:        int64(a.Size),
		})
	}
	msg.Links = ingest.ExtractLinks(m.Content)
	return msg
}

func invocationFromInteraction(i *discordgo.Interaction, roleName func(guildID, roleID string) string) collector.Invocation {
	inv := collector.Invocation{Name: i.ApplicationCommandData().Name}
	if i.Member == nil || i.GuildID == "" {
		return inv
	}
	inv.IsMember = true
	for _, id := range i.Member.Roles {
		if name := roleName(i.GuildID, id); name != "" {
			inv.RoleNames = append(inv.RoleNames, name)
		}
	}
	return inv
}

func toResponse(reply collector.Reply) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: reply.Content}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
