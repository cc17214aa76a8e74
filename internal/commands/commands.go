package commands

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"coronabot/internal/covid"
	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/models"
	"coronabot/internal/providers"
	"coronabot/internal/storage"
	"coronabot/internal/structures"
)

// Commands implements the user-facing operations. Every method returns the
// reply payload for the invoking channel; the dispatcher decides how to
// render it and how to report errors.
type Commands struct {
	store      *storage.Store
	lock       *storage.TimedMutex
	client     *covid.Client
	dispatcher dispatch.Dispatcher
	conf       *structures.Config
	logger     providers.Logger
}

func NewCommands(store *storage.Store, lock *storage.TimedMutex, client *covid.Client,
	dispatcher dispatch.Dispatcher, conf *structures.Config, logger providers.Logger) *Commands {
	return &Commands{
		store:      store,
		lock:       lock,
		client:     client,
		dispatcher: dispatcher,
		conf:       conf,
		logger:     logger,
	}
}

// normalizeRegion validates and canonicalizes a user-supplied region name.
// Apostrophes are rejected because the name is interpolated into the query
// filter. "taiwan" maps to the name the upstream dataset actually uses.
func normalizeRegion(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.New(errs.InvalidArgument, "region name must not be empty")
	}
	if strings.Contains(name, "'") {
		return "", errs.New(errs.InvalidArgument, "not a valid region name")
	}
	if strings.EqualFold(name, "taiwan") {
		return "Taiwan*", nil
	}
	return capitalize(name), nil
}

// capitalize uppercases the first rune and lowercases the rest, matching
// how region names are stored upstream ("France", "New york").
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// resolveRegion matches a normalized name against the country table first,
// then the province table. The returned attributes carry at least the
// tracked fields and Last_Update.
func (c *Commands) resolveRegion(ctx context.Context, name string, extraFields []string) (map[string]any, string, error) {
	countryFields := append([]string{models.AttrCountry, models.FieldConfirmed,
		models.FieldDeaths, models.FieldRecovered, models.AttrLastUpdate}, extraFields...)

	features, err := c.client.Query(ctx, covid.TableCountry, covid.QueryOptions{
		Where:     fmt.Sprintf("%s='%s'", models.AttrCountry, name),
		OutFields: countryFields,
	})
	if err != nil {
		return nil, "", err
	}
	if len(features) > 0 {
		return features[0].Attributes, models.AttrCountry, nil
	}

	features, err = c.client.Query(ctx, covid.TableProvince, covid.QueryOptions{
		Where:     fmt.Sprintf("%s='%s'", models.AttrProvince, name),
		OutFields: append(countryFields, models.AttrProvince),
	})
	if err != nil {
		return nil, "", err
	}
	if len(features) > 0 {
		return features[0].Attributes, models.AttrProvince, nil
	}

	return nil, "", errs.New(errs.NotFound, "no data found for region "+name)
}

// guildStates loads the subscription namespace. Callers must hold the
// store lock.
func (c *Commands) guildStates(_ context.Context) (*models.Document, error) {
	raw, err := c.store.FetchOrInit(models.Namespace, models.NewDocument())
	if err != nil {
		return nil, err
	}
	subscribers, ok := raw.(*models.Document)
	if !ok {
		return nil, errs.New(errs.IOFailure, "subscription namespace has unexpected shape")
	}
	return subscribers, nil
}
