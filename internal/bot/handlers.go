package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"cvebot/internal/nvd"
	"cvebot/internal/pagination"
	"cvebot/internal/render"
	"cvebot/internal/telemetry"
)

const helpColor = "#0099ff"

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	name := strings.TrimPrefix(cmd.Command, "/")
	telemetry.CommandsTotal.WithLabelValues(name).Inc()
	slog.Debug("Handling command", "command", name, "text", cmd.Text, "user", cmd.UserID)

	// When a channel is configured the bot only answers there, the way the
	// original registration was scoped to one guild.
	if b.cfg.ChannelID != "" && cmd.ChannelID != b.cfg.ChannelID {
		b.replyText(ctx, cmd.ChannelID, "This bot is not enabled in this channel.")
		return
	}

	switch name {
	case "lookup":
		b.handleLookup(ctx, cmd)
	case "search":
		b.handleSearch(ctx, cmd)
	case "latest":
		b.handleLatest(ctx, cmd)
	case "help":
		b.handleHelp(ctx, cmd)
	default:
		b.replyText(ctx, cmd.ChannelID, fmt.Sprintf("Unknown command %s. Try /help.", cmd.Command))
	}
}

func (b *Bot) handleLookup(ctx context.Context, cmd slack.SlashCommand) {
	if strings.TrimSpace(cmd.Text) == "" {
		b.replyText(ctx, cmd.ChannelID, "Usage: /lookup <CVE_ID>")
		return
	}
	id := nvd.NormalizeID(cmd.Text)

	rec, err := b.svc.GetByID(ctx, id)
	if errors.Is(err, nvd.ErrNotFound) {
		b.replyText(ctx, cmd.ChannelID, fmt.Sprintf("No record found for %s. Please verify the identifier and retry.", id))
		return
	}
	if err != nil {
		telemetry.UpstreamErrorsTotal.Inc()
		slog.Error("CVE lookup failed", "id", id, "error", err)
		b.replyText(ctx, cmd.ChannelID, "An error occurred while retrieving the CVE information. Please try again later.")
		return
	}

	page := render.Render(rec)
	if _, _, err := b.api.PostMessageContext(ctx, cmd.ChannelID, slack.MsgOptionAttachments(attachmentFor(page))); err != nil {
		slog.Error("Failed to post lookup result", "error", err)
	}
}

func (b *Bot) handleSearch(ctx context.Context, cmd slack.SlashCommand) {
	keyword := strings.TrimSpace(cmd.Text)
	if keyword == "" {
		b.replyText(ctx, cmd.ChannelID, "Usage: /search <keyword>")
		return
	}

	records, err := b.svc.SearchByKeyword(ctx, keyword)
	if err != nil {
		telemetry.UpstreamErrorsTotal.Inc()
		slog.Error("CVE search failed", "keyword", keyword, "error", err)
		b.replyText(ctx, cmd.ChannelID, "An error occurred while searching for CVEs. Please try again later.")
		return
	}
	if len(records) == 0 {
		b.replyText(ctx, cmd.ChannelID, "No results found for the given keyword.")
		return
	}

	b.paginate(ctx, cmd.ChannelID, render.Pages(records))
}

func (b *Bot) handleLatest(ctx context.Context, cmd slack.SlashCommand) {
	count := b.cfg.LatestCount
	if text := strings.TrimSpace(cmd.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			b.replyText(ctx, cmd.ChannelID, "Usage: /latest [count]")
			return
		}
		count = n
	}

	end := time.Now()
	start := end.Add(-b.cfg.LatestWindow)

	records, err := b.svc.GetByDateRange(ctx, start, end, count)
	if err != nil {
		telemetry.UpstreamErrorsTotal.Inc()
		slog.Error("Latest CVE fetch failed", "error", err)
		b.replyText(ctx, cmd.ChannelID, "An error occurred while fetching the latest CVEs. Please try again later.")
		return
	}
	if len(records) == 0 {
		b.replyText(ctx, cmd.ChannelID, "No latest CVEs found.")
		return
	}

	b.paginate(ctx, cmd.ChannelID, render.Pages(records))
}

// handleHelp posts static usage text. It never touches the query service
// or the pagination controller.
func (b *Bot) handleHelp(ctx context.Context, cmd slack.SlashCommand) {
	att := slack.Attachment{
		Color: helpColor,
		Title: "CVE Bot Help",
		Text:  "A list of commands available for the CVE bot:",
		Fields: []slack.AttachmentField{
			{Title: "/lookup", Value: "Lookup a specific CVE by its ID\nUsage: `/lookup <CVE_ID>`"},
			{Title: "/search", Value: "Search for CVEs by keywords\nUsage: `/search <keyword>`"},
			{Title: "/latest", Value: "Fetch the latest CVEs\nUsage: `/latest [count]` (default is 10)"},
		},
	}
	if _, _, err := b.api.PostMessageContext(ctx, cmd.ChannelID, slack.MsgOptionAttachments(att)); err != nil {
		slog.Error("Failed to post help", "error", err)
	}
}

// paginate starts a reaction-driven session over pages. A failure to
// attach reactions never aborts display of the first page; the session
// itself is best-effort beyond that.
func (b *Bot) paginate(ctx context.Context, channelID string, pages []render.Page) {
	sess, err := pagination.NewSession(pages, pagination.WithTimeout(b.cfg.PaginationTimeout))
	if err != nil {
		slog.Error("Failed to create pagination session", "error", err)
		return
	}

	tr := newMessageTransport(b.api, channelID, b.sessions, sess)
	telemetry.ActiveSessions.Inc()
	go func() {
		defer telemetry.ActiveSessions.Dec()
		defer tr.deregister()
		if err := sess.Run(ctx, tr); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Pagination session failed", "error", err)
		}
	}()
}

func (b *Bot) replyText(ctx context.Context, channelID, text string) {
	if _, _, err := b.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		slog.Error("Failed to post reply", "error", err)
	}
}

func attachmentFor(page render.Page) slack.Attachment {
	return slack.Attachment{
		Color: page.Color,
		Title: page.Title,
		Text:  page.Body,
		Fields: []slack.AttachmentField{
			{Title: "Severity", Value: page.Severity, Short: true},
		},
	}
}
