package commands

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coronabot/internal/covid"
	"coronabot/internal/errs"
	"coronabot/internal/storage"
	"coronabot/internal/structures"
	"coronabot/internal/testutil"
)

type commandsFixture struct {
	commands   *Commands
	store      *storage.Store
	lock       *storage.TimedMutex
	dispatcher *testutil.MockDispatcher
}

func newCommandsFixture(t *testing.T, handler http.HandlerFunc) *commandsFixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &structures.Config{
		InstanceName: "bot-1",
		Persistence: structures.Persistence{
			FilePath: filepath.Join(t.TempDir(), "db.json"),
		},
		Corona: structures.CoronaConfig{
			BaseURL:          srv.URL,
			ServiceID:        "ncov_cases",
			RequestTimeout:   5 * time.Second,
			CountryListTTL:   20 * time.Minute,
			CountryCountTTL:  60 * time.Minute,
			MaxSubscriptions: 10,
			PromptTimeout:    300 * time.Second,
		},
	}

	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	archive := storage.NewArchive(conf, &testutil.MockCompressor{}, logger)
	store := storage.NewStore(conf, archive, logger, metrics)
	lock := storage.NewTimedMutex(time.Second, logger, metrics)
	client := covid.NewClient(conf, logger, metrics)
	dispatcher := &testutil.MockDispatcher{}

	return &commandsFixture{
		commands:   NewCommands(store, lock, client, dispatcher, conf, logger),
		store:      store,
		lock:       lock,
		dispatcher: dispatcher,
	}
}

func TestNormalizeRegion_RejectsApostrophe(t *testing.T) {
	_, err := normalizeRegion("Cote d'Ivoire")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestNormalizeRegion_RejectsEmpty(t *testing.T) {
	_, err := normalizeRegion("  ")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestNormalizeRegion_TaiwanAlias(t *testing.T) {
	got, err := normalizeRegion("Taiwan")
	require.NoError(t, err)
	assert.Equal(t, "Taiwan*", got)

	got, err = normalizeRegion("taiwan")
	require.NoError(t, err)
	assert.Equal(t, "Taiwan*", got)
}

func TestNormalizeRegion_Capitalizes(t *testing.T) {
	got, err := normalizeRegion("fRANCE")
	require.NoError(t, err)
	assert.Equal(t, "France", got)

	got, err = normalizeRegion("new york")
	require.NoError(t, err)
	assert.Equal(t, "New york", got)
}
