package feed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"coronabot/internal/covid"
	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/models"
	"coronabot/internal/providers"
	"coronabot/internal/storage"
	"coronabot/internal/structures"
)

// Reconciler runs the periodic pass over all persisted subscriptions:
// fetch current values, diff against the stored ones, notify subscribed
// channels and persist the refreshed state in a single write.
type Reconciler struct {
	store      *storage.Store
	lock       *storage.TimedMutex
	client     *covid.Client
	dispatcher dispatch.Dispatcher
	conf       *structures.Config
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewReconciler(store *storage.Store, lock *storage.TimedMutex, client *covid.Client,
	dispatcher dispatch.Dispatcher, conf *structures.Config, logger providers.Logger,
	metrics providers.MetricsProviderInterface) *Reconciler {
	return &Reconciler{
		store:      store,
		lock:       lock,
		client:     client,
		dispatcher: dispatcher,
		conf:       conf,
		logger:     logger,
		metrics:    metrics,
	}
}

// shouldSkip implements the multi-instance coordination heuristic: leave a
// guild alone while another instance handled it recently, and don't
// reprocess our own work before a full interval elapsed.
func (r *Reconciler) shouldSkip(meta models.GuildMeta, now int64) bool {
	age := time.Duration(now-meta.LastExec) * time.Second
	if meta.InstanceName != r.conf.InstanceName && age < r.conf.Feed.StaleAfter {
		return true
	}
	if meta.InstanceName == r.conf.InstanceName && age < r.conf.Feed.Interval {
		return true
	}
	return false
}

// RunCycle executes one reconciliation pass. The store lock is held for
// the whole read-modify-write; the document is pushed once at the end no
// matter how many guilds were touched.
func (r *Reconciler) RunCycle(ctx context.Context) error {
	if err := r.lock.Acquire(ctx); err != nil {
		return err
	}
	defer r.lock.Release()

	raw, err := r.store.FetchOrInit(models.Namespace, models.NewDocument())
	if err != nil {
		return err
	}
	subscribers, ok := raw.(*models.Document)
	if !ok {
		return errs.New(errs.IOFailure, "subscription namespace has unexpected shape")
	}

	now := time.Now().Unix()
	total := 0

	for _, guildKey := range subscribers.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}

		val, _ := subscribers.Get(guildKey)
		guildDoc, ok := val.(*models.Document)
		if !ok {
			r.logger.Warnf(providers.TypeFeed, "Skipping malformed guild entry %v", guildKey)
			continue
		}

		state := models.GuildStateFromDoc(guildDoc)
		total += len(state.Subscriptions)
		if r.shouldSkip(state.Meta, now) {
			continue
		}

		// One failing subscription aborts the rest of this guild for
		// this cycle; other guilds still get processed.
		if err := r.processGuild(ctx, guildKey, &state); err != nil {
			r.logger.Warnf(providers.TypeFeed, "Guild %v not reconciled this cycle: %s", guildKey, err)
			continue
		}

		state.Meta = models.GuildMeta{InstanceName: r.conf.InstanceName, LastExec: now}
		subscribers.Set(guildKey, state.Doc())
	}

	r.metrics.SetSubscriptionsTotal(total)

	return r.store.AssignAndPersist(models.Namespace, subscribers)
}

func (r *Reconciler) processGuild(ctx context.Context, guildKey any, state *models.GuildState) error {
	for i := range state.Subscriptions {
		sub := &state.Subscriptions[i]

		attrs, name, err := r.fetchCurrent(ctx, *sub)
		if err != nil {
			return fmt.Errorf("subscription %d (%s): %w", i, sub.RegionName(), err)
		}

		changes := Deltas(sub.Values, attrs)
		if len(changes) == 0 {
			continue
		}

		msg := buildNotification(name, changes, attrs)
		if err := r.dispatcher.Send(ctx, sub.ChannelID, msg); err != nil {
			// Channel or guild gone, or the platform hiccuped. Values
			// are updated either way; losing one notification beats
			// repeating it forever.
			r.logger.Warnf(providers.TypeFeed, "Failed to notify channel %d for guild %v: %s",
				sub.ChannelID, guildKey, err)
			continue
		}
		r.metrics.IncNotificationsSent()
	}
	return nil
}

func (r *Reconciler) fetchCurrent(ctx context.Context, sub models.SubscriptionRecord) (map[string]any, string, error) {
	if sub.IsCountry() {
		features, err := r.client.Query(ctx, covid.TableCountry, covid.QueryOptions{
			Where: fmt.Sprintf("%s='%s'", models.AttrCountry, sub.Country),
			OutFields: []string{models.FieldConfirmed, models.FieldDeaths,
				models.FieldRecovered, models.AttrLastUpdate},
		})
		if err != nil {
			return nil, "", err
		}
		if len(features) == 0 {
			return nil, "", errs.New(errs.NotFound, "no data for country "+sub.Country)
		}
		return features[0].Attributes, sub.Country, nil
	}

	features, err := r.client.Query(ctx, covid.TableProvince, covid.QueryOptions{
		Where: fmt.Sprintf("%s='%s'", models.AttrProvince, sub.Province),
		OutFields: []string{models.AttrCountry, models.FieldConfirmed,
			models.FieldDeaths, models.FieldRecovered, models.AttrLastUpdate},
	})
	if err != nil {
		return nil, "", err
	}
	if len(features) == 0 {
		return nil, "", errs.New(errs.NotFound, "no data for province "+sub.Province)
	}
	attrs := features[0].Attributes
	name := fmt.Sprintf("%s, %s", sub.Province, cast.ToString(attrs[models.AttrCountry]))
	return attrs, name, nil
}

// buildNotification renders one status-update payload: the per-field
// changes as an aligned text block plus the fresh absolute values.
func buildNotification(name string, changes map[string]string, attrs map[string]any) *dispatch.Message {
	fields := make([]dispatch.Field, 0, len(models.TrackedFields))
	for _, field := range models.TrackedFields {
		if v := cast.ToInt64(attrs[field]); v != 0 {
			fields = append(fields, dispatch.Field{Name: field, Value: strconv.FormatInt(v, 10)})
		}
	}

	msg := &dispatch.Message{
		Title:   "COVID-19 Status Update for " + name,
		Body:    formatChanges(changes),
		Fields:  fields,
		Changes: changes,
	}
	if ts := cast.ToInt64(attrs[models.AttrLastUpdate]); ts != 0 {
		msg.Timestamp = time.UnixMilli(ts).UTC()
	}
	return msg
}

func formatChanges(changes map[string]string) string {
	keys := make([]string, 0, len(changes))
	longest := 0
	for key := range changes {
		keys = append(keys, key)
		if len(key) > longest {
			longest = len(key)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("- Changes -")
	for _, key := range keys {
		sb.WriteString(fmt.Sprintf("\n%*s: %s", longest, key, changes[key]))
	}
	return sb.String()
}
