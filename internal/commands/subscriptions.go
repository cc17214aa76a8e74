package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/models"
	"coronabot/internal/providers"
)

// Subscribe registers a channel for status updates on a region and
// confirms by sending the region's current status to that channel.
func (c *Commands) Subscribe(ctx context.Context, inv dispatch.Invocation, channelID int64, region string) (*dispatch.Message, error) {
	region, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}

	attrs, matchedKey, err := c.addSubscription(ctx, inv, channelID, region)
	if err != nil {
		return nil, err
	}
	regionName := cast.ToString(attrs[matchedKey])

	// Current numbers go to the subscribed channel so it starts with a
	// baseline. Sent with the lock already released; delivery failure
	// doesn't undo the subscription.
	if err := c.dispatcher.Send(ctx, channelID, statusSnapshot(regionName, attrs)); err != nil {
		c.logger.Warnf(providers.TypeCmd, "Failed to send initial status to channel %d: %s", channelID, err)
	}

	kind := "country"
	if matchedKey == models.AttrProvince {
		kind = "province"
	}
	return &dispatch.Message{
		Title: "Subscription added",
		Body:  fmt.Sprintf("Subscribing to %s %s in channel %d.", kind, regionName, channelID),
	}, nil
}

// addSubscription is the locked read-modify-write part of Subscribe. The
// lock is held across the cap check, the remote resolve and the persist so
// two concurrent subscribes cannot both pass the cap.
func (c *Commands) addSubscription(ctx context.Context, inv dispatch.Invocation, channelID int64, region string) (map[string]any, string, error) {
	if err := c.lock.Acquire(ctx); err != nil {
		return nil, "", err
	}
	defer c.lock.Release()

	subscribers, err := c.guildStates(ctx)
	if err != nil {
		return nil, "", err
	}

	state := guildState(subscribers, inv.GuildID)
	if len(state.Subscriptions) >= c.conf.Corona.MaxSubscriptions {
		return nil, "", errs.New(errs.LimitExceeded,
			fmt.Sprintf("this server already subscribed to %d sources, consider unsubscribing some",
				c.conf.Corona.MaxSubscriptions))
	}

	attrs, matchedKey, err := c.resolveRegion(ctx, region, nil)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			return nil, "", errs.New(errs.InvalidArgument, "not a valid region, did you make a typo?")
		}
		return nil, "", err
	}
	regionName := cast.ToString(attrs[matchedKey])

	record := models.SubscriptionRecord{
		ChannelID: channelID,
		Values:    make(map[string]int64, len(models.TrackedFields)),
	}
	if matchedKey == models.AttrCountry {
		record.Country = regionName
	} else {
		record.Province = regionName
	}
	for _, field := range models.TrackedFields {
		record.Values[field] = cast.ToInt64(attrs[field])
	}

	state.Subscriptions = append(state.Subscriptions, record)
	state.Meta = models.GuildMeta{InstanceName: c.conf.InstanceName, LastExec: time.Now().Unix()}
	subscribers.Set(inv.GuildID, state.Doc())

	if err := c.store.AssignAndPersist(models.Namespace, subscribers); err != nil {
		return nil, "", err
	}
	return attrs, matchedKey, nil
}

// Unsubscribe removes a subscription by its zero-based listing index. With
// no index given it lists the active subscriptions and waits for the
// invoker to reply with one.
func (c *Commands) Unsubscribe(ctx context.Context, inv dispatch.Invocation, index int, hasIndex bool) (*dispatch.Message, error) {
	if hasIndex && index < 0 {
		return nil, errs.New(errs.InvalidArgument, "subscription ID must not be negative")
	}

	if err := c.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.lock.Release()

	subscribers, err := c.guildStates(ctx)
	if err != nil {
		return nil, err
	}

	state := guildState(subscribers, inv.GuildID)
	if len(state.Subscriptions) == 0 {
		return nil, errs.New(errs.NotFound, "there are no active subscriptions in this server")
	}

	if !hasIndex {
		listing := subscriptionListing(state.Subscriptions)
		listing.Body += "\n\nRespond with the ID to unsubscribe from."
		if err := c.dispatcher.Send(ctx, inv.ChannelID, listing); err != nil {
			return nil, err
		}
		reply, err := c.dispatcher.Prompt(ctx, inv.ChannelID, inv.UserID, isDigits, c.conf.Corona.PromptTimeout)
		if err != nil {
			return nil, err
		}
		index, err = strconv.Atoi(reply)
		if err != nil {
			return nil, errs.New(errs.InvalidArgument, "not a numeric subscription ID")
		}
	}

	if index >= len(state.Subscriptions) {
		return nil, errs.New(errs.InvalidArgument, "ID given is out of range")
	}

	removed := state.Subscriptions[index]
	state.Subscriptions = append(state.Subscriptions[:index], state.Subscriptions[index+1:]...)

	if len(state.Subscriptions) == 0 {
		subscribers.Delete(inv.GuildID)
	} else {
		subscribers.Set(inv.GuildID, state.Doc())
	}
	if err := c.store.AssignAndPersist(models.Namespace, subscribers); err != nil {
		return nil, err
	}

	return &dispatch.Message{
		Title: "Subscription removed",
		Body: fmt.Sprintf("Successfully unsubscribed status update of %s in channel %d.",
			removed.RegionName(), removed.ChannelID),
	}, nil
}

// Subscriptions lists the invoking guild's active subscriptions.
func (c *Commands) Subscriptions(ctx context.Context, inv dispatch.Invocation) (*dispatch.Message, error) {
	if err := c.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.lock.Release()

	subscribers, err := c.guildStates(ctx)
	if err != nil {
		return nil, err
	}

	state := guildState(subscribers, inv.GuildID)
	if len(state.Subscriptions) == 0 {
		return &dispatch.Message{Body: "No active subscription found."}, nil
	}
	return subscriptionListing(state.Subscriptions), nil
}

// guildState decodes one guild's entry, or returns an empty state when the
// guild has none yet.
func guildState(subscribers *models.Document, guildID int64) models.GuildState {
	if val, ok := subscribers.Get(guildID); ok {
		if doc, ok := val.(*models.Document); ok {
			return models.GuildStateFromDoc(doc)
		}
	}
	return models.GuildState{}
}

func subscriptionListing(subs []models.SubscriptionRecord) *dispatch.Message {
	lines := make([]string, 0, len(subs))
	for i, sub := range subs {
		lines = append(lines, fmt.Sprintf("[%d] channel %d - %s", i, sub.ChannelID, sub.RegionName()))
	}
	return &dispatch.Message{
		Title: "Active subscriptions",
		Body:  strings.Join(lines, "\n"),
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// statusSnapshot renders the freshly resolved values as a status payload
// for the subscribed channel.
func statusSnapshot(regionName string, attrs map[string]any) *dispatch.Message {
	msg := &dispatch.Message{Title: regionName + "'s COVID-19 Status"}
	for _, field := range models.TrackedFields {
		if v := cast.ToInt64(attrs[field]); v != 0 {
			msg.Fields = append(msg.Fields, dispatch.Field{Name: field, Value: strconv.FormatInt(v, 10)})
		}
	}
	if ts := cast.ToInt64(attrs[models.AttrLastUpdate]); ts != 0 {
		msg.Timestamp = time.UnixMilli(ts).UTC()
	}
	return msg
}
