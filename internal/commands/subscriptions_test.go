package commands

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/models"
)

var testInvocation = dispatch.Invocation{GuildID: 712, ChannelID: 1, UserID: 99}

func franceHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Query().Get("where"), "France") {
		fmt.Fprint(w, `{"features":[{"attributes":{"Country_Region":"France","Confirmed":1000,"Deaths":50,"Recovered":600,"Last_Update":1700000000000}}]}`)
		return
	}
	fmt.Fprint(w, `{"features":[]}`)
}

func (f *commandsFixture) guildState(t *testing.T, guildID int64) models.GuildState {
	t.Helper()
	require.NoError(t, f.store.Pull())
	raw, ok := f.store.Document().Get(models.Namespace)
	require.True(t, ok)
	val, ok := raw.(*models.Document).Get(guildID)
	require.True(t, ok)
	return models.GuildStateFromDoc(val.(*models.Document))
}

func TestSubscribe_PersistsRecordAndSendsBaseline(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	msg, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "country France")

	state := f.guildState(t, 712)
	require.Len(t, state.Subscriptions, 1)
	sub := state.Subscriptions[0]
	assert.Equal(t, "France", sub.Country)
	assert.Equal(t, int64(42), sub.ChannelID)
	assert.Equal(t, int64(1000), sub.Values[models.FieldConfirmed])
	assert.Equal(t, "bot-1", state.Meta.InstanceName)

	sent := f.dispatcher.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChannelID)
	assert.Equal(t, "France's COVID-19 Status", sent[0].Message.Title)
	assert.False(t, f.lock.IsLocked())
}

func TestSubscribe_BaselineSentAfterLockReleased(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	lockedDuringSend := false
	f.dispatcher.SendFn = func(_ int64, _ *dispatch.Message) error {
		if f.lock.IsLocked() {
			lockedDuringSend = true
		}
		return nil
	}

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)
	assert.False(t, lockedDuringSend)

	// The record was already persisted when the baseline went out.
	sent := f.dispatcher.Sent()
	require.Len(t, sent, 1)
	state := f.guildState(t, 712)
	require.Len(t, state.Subscriptions, 1)
}

func TestSubscribe_UnknownRegionIsInvalidArgument(t *testing.T) {
	f := newCommandsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	})

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "atlantis")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
	assert.False(t, f.lock.IsLocked())
}

func TestSubscribe_RejectsApostrophe(t *testing.T) {
	f := newCommandsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no remote call expected for invalid input")
	})

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "d'oh")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestSubscribe_EnforcesCap(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	state := models.GuildState{}
	for i := 0; i < 10; i++ {
		state.Subscriptions = append(state.Subscriptions, models.SubscriptionRecord{
			ChannelID: int64(i),
			Country:   fmt.Sprintf("Country%d", i),
			Values:    map[string]int64{models.FieldConfirmed: 1},
		})
	}
	require.NoError(t, f.store.Pull())
	raw, err := f.store.FetchOrInit(models.Namespace, models.NewDocument())
	require.NoError(t, err)
	subscribers := raw.(*models.Document)
	subscribers.Set(testInvocation.GuildID, state.Doc())
	require.NoError(t, f.store.AssignAndPersist(models.Namespace, subscribers))

	_, err = f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.Error(t, err)
	assert.Equal(t, errs.LimitExceeded, errs.KindOf(err))

	// The existing records are untouched.
	got := f.guildState(t, 712)
	assert.Len(t, got.Subscriptions, 10)
	assert.Empty(t, f.dispatcher.Sent())
}

func TestUnsubscribe_ByIndex(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)

	msg, err := f.commands.Unsubscribe(context.Background(), testInvocation, 0, true)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "France")

	// Last subscription removed, the guild entry goes with it.
	require.NoError(t, f.store.Pull())
	raw, ok := f.store.Document().Get(models.Namespace)
	require.True(t, ok)
	assert.False(t, raw.(*models.Document).Contains(testInvocation.GuildID))
}

func TestUnsubscribe_NoSubscriptions(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	_, err := f.commands.Unsubscribe(context.Background(), testInvocation, 0, true)
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestUnsubscribe_IndexOutOfRange(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)

	_, err = f.commands.Unsubscribe(context.Background(), testInvocation, 5, true)
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))

	_, err = f.commands.Unsubscribe(context.Background(), testInvocation, -1, true)
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestUnsubscribe_PromptFlow(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)

	f.dispatcher.PromptFn = func(channelID, userID int64, accept func(string) bool) (string, error) {
		assert.Equal(t, testInvocation.ChannelID, channelID)
		assert.Equal(t, testInvocation.UserID, userID)
		assert.False(t, accept("nope"))
		assert.False(t, accept(""))
		assert.True(t, accept("0"))
		return "0", nil
	}

	msg, err := f.commands.Unsubscribe(context.Background(), testInvocation, 0, false)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "France")

	// The listing was sent to the invoking channel before prompting.
	sent := f.dispatcher.Sent()
	var listed bool
	for _, s := range sent {
		if s.ChannelID == testInvocation.ChannelID && strings.Contains(s.Message.Body, "[0] channel 42 - France") {
			listed = true
		}
	}
	assert.True(t, listed)
}

func TestUnsubscribe_KeepsRemainingRecords(t *testing.T) {
	f := newCommandsFixture(t, func(w http.ResponseWriter, r *http.Request) {
		where := r.URL.Query().Get("where")
		for _, name := range []string{"France", "Italy"} {
			if strings.Contains(where, name) {
				fmt.Fprintf(w, `{"features":[{"attributes":{"Country_Region":"%s","Confirmed":10,"Deaths":1,"Recovered":5,"Last_Update":1700000000000}}]}`, name)
				return
			}
		}
		fmt.Fprint(w, `{"features":[]}`)
	})

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)
	_, err = f.commands.Subscribe(context.Background(), testInvocation, 43, "italy")
	require.NoError(t, err)

	_, err = f.commands.Unsubscribe(context.Background(), testInvocation, 0, true)
	require.NoError(t, err)

	state := f.guildState(t, 712)
	require.Len(t, state.Subscriptions, 1)
	assert.Equal(t, "Italy", state.Subscriptions[0].Country)
}

func TestSubscriptions_Listing(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	_, err := f.commands.Subscribe(context.Background(), testInvocation, 42, "france")
	require.NoError(t, err)

	msg, err := f.commands.Subscriptions(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "[0] channel 42 - France")
}

func TestSubscriptions_EmptyGuild(t *testing.T) {
	f := newCommandsFixture(t, franceHandler)

	msg, err := f.commands.Subscriptions(context.Background(), testInvocation)
	require.NoError(t, err)
	assert.Equal(t, "No active subscription found.", msg.Body)
}
