package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"coronabot/internal/covid"
	"coronabot/internal/models"
	"coronabot/internal/providers"
	"coronabot/internal/storage"
)

// ApiController exposes the read-only ops endpoints: current subscriptions
// and the cached country list.
type ApiController struct {
	logger  providers.Logger
	client  *covid.Client
	store   *storage.Store
	lock    *storage.TimedMutex
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
}

func NewApiController(logger providers.Logger, client *covid.Client, store *storage.Store,
	lock *storage.TimedMutex, cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		client:  client,
		store:   store,
		lock:    lock,
		cache:   cache,
		metrics: metrics,
	}
}

type subscriptionEntry struct {
	Guild     int              `json:"guild"`
	ChannelID int64            `json:"channel_id"`
	Region    string           `json:"region"`
	Kind      string           `json:"kind"`
	Values    map[string]int64 `json:"values"`
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		ac.metrics.IncCacheHits()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	ac.metrics.IncCacheMisses()

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeHTTP, "Failed to compute %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "subscriptions", func() (any, error) {
		if err := ac.lock.Acquire(r.Context()); err != nil {
			return nil, err
		}
		defer ac.lock.Release()

		raw, err := ac.store.FetchOr(models.Namespace, models.NewDocument())
		if err != nil {
			return nil, err
		}
		subscribers, ok := raw.(*models.Document)
		if !ok {
			return []subscriptionEntry{}, nil
		}

		entries := make([]subscriptionEntry, 0)
		subscribers.Range(func(k, v any) bool {
			guildDoc, ok := v.(*models.Document)
			if !ok {
				return true
			}
			guildID := cast.ToInt(k)
			state := models.GuildStateFromDoc(guildDoc)
			for _, sub := range state.Subscriptions {
				kind := "province"
				if sub.IsCountry() {
					kind = "country"
				}
				entries = append(entries, subscriptionEntry{
					Guild:     guildID,
					ChannelID: sub.ChannelID,
					Region:    sub.RegionName(),
					Kind:      kind,
					Values:    sub.Values,
				})
			}
			return true
		})
		return entries, nil
	})
}

func (ac *ApiController) GetCountries(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "countries", func() (any, error) {
		return ac.client.CountryList(r.Context())
	})
}
