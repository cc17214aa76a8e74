package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"coronabot/internal/models"
	"coronabot/internal/storage"
)

type HealthController struct {
	store     *storage.Store
	lock      *storage.TimedMutex
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Guilds        int     `json:"guilds"`
	Subscriptions int     `json:"subscriptions"`
	StoreLocked   bool    `json:"store_locked"`
}

// Health reports liveness plus a snapshot of the subscription counts. The
// document is mutated in place by the reconciler and the command surface,
// so the counts are read under the store lock like every other access.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// Observed before acquiring, otherwise the poll always sees its own
	// hold.
	locked := hc.lock.IsLocked()

	guilds, subscriptions, err := hc.countSubscriptions(r.Context())
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Guilds:        guilds,
		Subscriptions: subscriptions,
		StoreLocked:   locked,
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (hc *HealthController) countSubscriptions(ctx context.Context) (guilds, subscriptions int, err error) {
	if err := hc.lock.Acquire(ctx); err != nil {
		return 0, 0, err
	}
	defer hc.lock.Release()

	val, ok := hc.store.Document().Get(models.Namespace)
	if !ok {
		return 0, 0, nil
	}
	subscribers, ok := val.(*models.Document)
	if !ok {
		return 0, 0, nil
	}

	guilds = subscribers.Len()
	subscribers.Range(func(_, v any) bool {
		if guildDoc, ok := v.(*models.Document); ok {
			state := models.GuildStateFromDoc(guildDoc)
			subscriptions += len(state.Subscriptions)
		}
		return true
	})
	return guilds, subscriptions, nil
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store *storage.Store, lock *storage.TimedMutex) *HealthController {
	return &HealthController{
		store:     store,
		lock:      lock,
		startTime: time.Now(),
	}
}
