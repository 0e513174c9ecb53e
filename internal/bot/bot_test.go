package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvebot/internal/config"
	"cvebot/internal/nvd"
)

// Mocks

type fakeSlackAPI struct {
	mu               sync.Mutex
	posted           []string // channel IDs
	updated          []string // message timestamps
	reactionsAdded   []string
	reactionsRemoved []string
	nextTS           int
}

func (f *fakeSlackAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "BOTUSER"}, nil
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, channelID)
	f.nextTS++
	return channelID, fmt.Sprintf("1700000000.%06d", f.nextTS), nil
}

func (f *fakeSlackAPI) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, timestamp)
	return channelID, timestamp, "", nil
}

func (f *fakeSlackAPI) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactionsAdded = append(f.reactionsAdded, name)
	return nil
}

func (f *fakeSlackAPI) RemoveReactionContext(ctx context.Context, name string, item slack.ItemRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactionsRemoved = append(f.reactionsRemoved, name)
	return nil
}

func (f *fakeSlackAPI) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

func (f *fakeSlackAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updated)
}

func (f *fakeSlackAPI) addedReactions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reactionsAdded...)
}

type fakeService struct {
	getByIDFunc         func(ctx context.Context, id string) (nvd.Record, error)
	searchByKeywordFunc func(ctx context.Context, keyword string) ([]nvd.Record, error)
	getByDateRangeFunc  func(ctx context.Context, start, end time.Time, limit int) ([]nvd.Record, error)
}

func (f *fakeService) GetByID(ctx context.Context, id string) (nvd.Record, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, id)
	}
	return nvd.Record{}, nvd.ErrNotFound
}

func (f *fakeService) SearchByKeyword(ctx context.Context, keyword string) ([]nvd.Record, error) {
	if f.searchByKeywordFunc != nil {
		return f.searchByKeywordFunc(ctx, keyword)
	}
	return nil, nil
}

func (f *fakeService) GetByDateRange(ctx context.Context, start, end time.Time, limit int) ([]nvd.Record, error) {
	if f.getByDateRangeFunc != nil {
		return f.getByDateRangeFunc(ctx, start, end, limit)
	}
	return nil, nil
}

func newTestBot(api *fakeSlackAPI, svc nvd.Service) *Bot {
	return &Bot{
		api: api,
		svc: svc,
		cfg: config.Bot{
			PaginationTimeout: 5 * time.Second,
			LatestCount:       10,
			LatestWindow:      7 * 24 * time.Hour,
		},
		botUserID: "BOTUSER",
		sessions:  newSessionRegistry(),
	}
}

func slashCmd(command, text string) slack.SlashCommand {
	return slack.SlashCommand{Command: command, Text: text, ChannelID: "C123", UserID: "U1"}
}

func TestHandleLookup_NormalizesID(t *testing.T) {
	var gotID string
	svc := &fakeService{
		getByIDFunc: func(ctx context.Context, id string) (nvd.Record, error) {
			gotID = id
			return nvd.Record{ID: id, Description: "desc", Severity: "HIGH"}, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)

	b.handleSlashCommand(context.Background(), slashCmd("/lookup", "1234-5678"))

	assert.Equal(t, "CVE-1234-5678", gotID)
	assert.Equal(t, 1, api.postCount())
}

func TestHandleLookup_NotFound(t *testing.T) {
	api := &fakeSlackAPI{}
	b := newTestBot(api, &fakeService{}) // zero-value service answers not-found

	b.handleSlashCommand(context.Background(), slashCmd("/lookup", "CVE-0000-0000"))

	// The user still gets a reply.
	assert.Equal(t, 1, api.postCount())
	assert.Equal(t, 0, len(b.sessions.sessions))
}

func TestHandleSearch_EmptyResultSet(t *testing.T) {
	svc := &fakeService{
		searchByKeywordFunc: func(ctx context.Context, keyword string) ([]nvd.Record, error) {
			return nil, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)

	b.handleSlashCommand(context.Background(), slashCmd("/search", "nosuchthing"))

	assert.Equal(t, 1, api.postCount())
	b.sessions.mu.Lock()
	assert.Empty(t, b.sessions.sessions)
	b.sessions.mu.Unlock()
}

func TestHandleSearch_PaginatesResults(t *testing.T) {
	svc := &fakeService{
		searchByKeywordFunc: func(ctx context.Context, keyword string) ([]nvd.Record, error) {
			require.Equal(t, "log4j", keyword)
			return []nvd.Record{
				{ID: "CVE-2021-44228", Severity: "CRITICAL"},
				{ID: "CVE-2021-45046", Severity: "CRITICAL"},
				{ID: "CVE-2021-45105", Severity: "HIGH"},
			}, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)

	b.handleSlashCommand(context.Background(), slashCmd("/search", "log4j"))

	// The session posts the first page and attaches both controls.
	require.Eventually(t, func() bool {
		return api.postCount() == 1 && len(api.addedReactions()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"arrow_backward", "arrow_forward"}, api.addedReactions())

	key := messageKey("C123", "1700000000.000001")
	sess, ok := b.sessions.get(key)
	require.True(t, ok)

	// Two advances then one retreat lands on page index 1.
	b.routeReaction("C123", "1700000000.000001", "arrow_forward", "U1")
	b.routeReaction("C123", "1700000000.000001", "arrow_forward", "U2")
	b.routeReaction("C123", "1700000000.000001", "arrow_backward", "U1")

	require.Eventually(t, func() bool { return api.updateCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sess.Index())

	// The bot's own reactions never count as signals.
	b.routeReaction("C123", "1700000000.000001", "arrow_forward", "BOTUSER")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sess.Index())

	// Closing tears the session out of the registry and removes controls.
	sess.Close()
	require.Eventually(t, func() bool {
		_, ok := b.sessions.get(key)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestHandleLatest(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLimit int
		wantCall  bool
	}{
		{"default count", "", 10, true},
		{"explicit count", "5", 5, true},
		{"garbage count", "many", 0, false},
		{"negative count", "-3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			called := false
			svc := &fakeService{
				getByDateRangeFunc: func(ctx context.Context, start, end time.Time, limit int) ([]nvd.Record, error) {
					called = true
					gotLimit = limit
					// The window spans the trailing 7 days.
					assert.InDelta(t, 7*24*time.Hour, end.Sub(start), float64(time.Minute))
					return nil, nil
				},
			}
			api := &fakeSlackAPI{}
			b := newTestBot(api, svc)

			b.handleSlashCommand(context.Background(), slashCmd("/latest", tt.text))

			assert.Equal(t, tt.wantCall, called)
			if tt.wantCall {
				assert.Equal(t, tt.wantLimit, gotLimit)
			}
			// Either the empty-result notice or the usage hint was posted.
			assert.Equal(t, 1, api.postCount())
		})
	}
}

func TestHandleHelp_TouchesNothing(t *testing.T) {
	svc := &fakeService{
		getByIDFunc: func(ctx context.Context, id string) (nvd.Record, error) {
			t.Fatal("help must not query the record source")
			return nvd.Record{}, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)

	b.handleSlashCommand(context.Background(), slashCmd("/help", ""))

	assert.Equal(t, 1, api.postCount())
	b.sessions.mu.Lock()
	assert.Empty(t, b.sessions.sessions)
	b.sessions.mu.Unlock()
}

func TestHandleEventsLoop_SlashCommandAck(t *testing.T) {
	var gotID string
	done := make(chan struct{})
	svc := &fakeService{
		getByIDFunc: func(ctx context.Context, id string) (nvd.Record, error) {
			gotID = id
			close(done)
			return nvd.Record{ID: id, Severity: "LOW"}, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)

	events := make(chan socketmode.Event, 4)
	var ackMu sync.Mutex
	acks := 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.handleEventsLoop(ctx, events, func(req socketmode.Request) {
			ackMu.Lock()
			acks++
			ackMu.Unlock()
		})
	}()

	events <- socketmode.Event{Type: socketmode.EventTypeConnecting}
	events <- socketmode.Event{
		Type:    socketmode.EventTypeSlashCommand,
		Data:    slashCmd("/lookup", "2024-0001"),
		Request: &socketmode.Request{},
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slash command was not handled")
	}
	assert.Equal(t, "CVE-2024-0001", gotID)

	cancel()
	wg.Wait()

	ackMu.Lock()
	assert.Equal(t, 1, acks)
	ackMu.Unlock()
}

func TestHandleSlashCommand_ChannelScope(t *testing.T) {
	svc := &fakeService{
		getByIDFunc: func(ctx context.Context, id string) (nvd.Record, error) {
			t.Fatal("command from an out-of-scope channel must not reach the service")
			return nvd.Record{}, nil
		},
	}
	api := &fakeSlackAPI{}
	b := newTestBot(api, svc)
	b.cfg.ChannelID = "CALLOWED"

	b.handleSlashCommand(context.Background(), slashCmd("/lookup", "CVE-2021-44228"))

	// The user still gets a reply, just not a result.
	assert.Equal(t, 1, api.postCount())
}

func TestRouteReaction_UnknownMessage(t *testing.T) {
	b := newTestBot(&fakeSlackAPI{}, &fakeService{})
	// No session registered for this message; must be a silent no-op.
	b.routeReaction("C123", "1700000000.000001", "arrow_forward", "U1")
}
