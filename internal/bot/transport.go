package bot

import (
	"context"
	"sync"

	"github.com/slack-go/slack"

	"cvebot/internal/pagination"
	"cvebot/internal/render"
)

// sessionRegistry maps posted messages to their live pagination sessions
// so reaction events can be routed back.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*pagination.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*pagination.Session)}
}

func messageKey(channel, timestamp string) string {
	return channel + ":" + timestamp
}

func (r *sessionRegistry) add(key string, s *pagination.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[key] = s
}

func (r *sessionRegistry) get(key string) (*pagination.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

func (r *sessionRegistry) remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// messageTransport presents a pagination session as one Slack message that
// is edited in place, with the control reactions added by the bot.
type messageTransport struct {
	api       slackAPI
	channelID string
	timestamp string
	registry  *sessionRegistry
	session   *pagination.Session
}

func newMessageTransport(api slackAPI, channelID string, registry *sessionRegistry, session *pagination.Session) *messageTransport {
	return &messageTransport{
		api:       api,
		channelID: channelID,
		registry:  registry,
		session:   session,
	}
}

func (t *messageTransport) Present(ctx context.Context, page render.Page) error {
	_, timestamp, err := t.api.PostMessageContext(ctx, t.channelID, slack.MsgOptionAttachments(attachmentFor(page)))
	if err != nil {
		return err
	}
	t.timestamp = timestamp
	t.registry.add(messageKey(t.channelID, timestamp), t.session)
	return nil
}

func (t *messageTransport) Update(ctx context.Context, page render.Page) error {
	_, _, _, err := t.api.UpdateMessageContext(ctx, t.channelID, t.timestamp, slack.MsgOptionAttachments(attachmentFor(page)))
	return err
}

func (t *messageTransport) AttachControls(ctx context.Context, controls pagination.Controls) error {
	item := slack.NewRefToMessage(t.channelID, t.timestamp)
	for _, name := range []string{controls.Retreat, controls.Advance} {
		if err := t.api.AddReactionContext(ctx, name, item); err != nil {
			return err
		}
	}
	return nil
}

func (t *messageTransport) DetachControls(ctx context.Context) error {
	item := slack.NewRefToMessage(t.channelID, t.timestamp)
	var firstErr error
	for _, name := range []string{t.session.Controls().Retreat, t.session.Controls().Advance} {
		if err := t.api.RemoveReactionContext(ctx, name, item); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ClearEvent is a no-op: Slack only lets a client remove its own
// reactions, so the bot instead treats reaction removal as a signal too
// (see handleEventsAPI), which keeps the controls reusable.
func (t *messageTransport) ClearEvent(ctx context.Context, ev pagination.Event) error {
	return nil
}

func (t *messageTransport) deregister() {
	if t.timestamp != "" {
		t.registry.remove(messageKey(t.channelID, t.timestamp))
	}
}
