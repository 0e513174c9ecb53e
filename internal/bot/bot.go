// Package bot wires the Slack surface: slash command dispatch, result
// rendering into colored attachments, and reaction-driven pagination.
package bot

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"cvebot/internal/config"
	"cvebot/internal/nvd"
	"cvebot/internal/pagination"
)

// slackAPI is the slice of the Slack client the bot uses. *slack.Client
// satisfies it; tests substitute a fake.
type slackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
	RemoveReactionContext(ctx context.Context, name string, item slack.ItemRef) error
}

// Bot connects a Slack workspace to the vulnerability database.
type Bot struct {
	api       slackAPI
	socket    *socketmode.Client
	svc       nvd.Service
	cfg       config.Bot
	botUserID string
	sessions  *sessionRegistry
}

// New creates a Bot from its configuration and a query service.
func New(cfg config.Bot, svc nvd.Service) *Bot {
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &Bot{
		api:      api,
		socket:   socketmode.New(api),
		svc:      svc,
		cfg:      cfg,
		sessions: newSessionRegistry(),
	}
}

// Run connects to Slack in Socket Mode and processes events until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	resp, err := b.api.AuthTestContext(ctx)
	if err != nil {
		return err
	}
	b.botUserID = resp.UserID
	slog.Info("Ready", "bot_user", resp.UserID,
		"commands", []string{"/lookup", "/search", "/latest", "/help"})

	go func() {
		if err := b.socket.RunContext(ctx); err != nil && err != context.Canceled {
			slog.Error("Slack Socket Mode error", "error", err)
		}
	}()

	b.handleEventsLoop(ctx, b.socket.Events, func(req socketmode.Request) {
		b.socket.Ack(req)
	})
	return ctx.Err()
}

func (b *Bot) handleEventsLoop(ctx context.Context, events <-chan socketmode.Event, ackFunc func(socketmode.Request)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				slog.Info("Connecting to Slack Socket Mode...")
			case socketmode.EventTypeConnectionError:
				slog.Warn("Slack connection failed. Retrying later...")
			case socketmode.EventTypeConnected:
				slog.Info("Connected to Slack Socket Mode")
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				if evt.Request != nil {
					ackFunc(*evt.Request)
				}
				// Handlers do network I/O; keep the loop free to
				// route pagination signals meanwhile.
				go b.handleSlashCommand(ctx, cmd)
			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					ackFunc(*evt.Request)
				}
				b.handleEventsAPI(apiEvent)
			}
		}
	}
}

// handleEventsAPI routes reaction adds and removes to the pagination
// session attached to the reacted message, if any. Removes count too so a
// user can toggle the same control repeatedly even though the bot cannot
// clear reactions others added.
func (b *Bot) handleEventsAPI(apiEvent slackevents.EventsAPIEvent) {
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.ReactionAddedEvent:
		b.routeReaction(ev.Item.Channel, ev.Item.Timestamp, ev.Reaction, ev.User)
	case *slackevents.ReactionRemovedEvent:
		b.routeReaction(ev.Item.Channel, ev.Item.Timestamp, ev.Reaction, ev.User)
	}
}

func (b *Bot) routeReaction(channel, timestamp, reaction, user string) {
	sess, ok := b.sessions.get(messageKey(channel, timestamp))
	if !ok {
		return
	}
	sess.Deliver(pagination.Event{
		Token:   reaction,
		UserID:  user,
		FromBot: user == b.botUserID,
	})
}
