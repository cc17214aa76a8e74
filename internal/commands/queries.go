package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"coronabot/internal/covid"
	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/models"
)

const deltaWindow = 48 * time.Hour

// statusFields maps attribute names to display labels, in reply order.
var statusFields = []struct {
	attr  string
	label string
}{
	{models.FieldConfirmed, "Confirmed"},
	{models.FieldDeaths, "Deaths"},
	{models.FieldRecovered, "Recovered"},
	{"Active", "Active"},
	{"Incident_Rate", "Incident Rate"},
	{"People_Tested", "People Tested"},
	{"Delta_Confirmed", "Confirmed Last 48hr"},
	{"Delta_Recovered", "Recovered Last 48hr"},
}

func (c *Commands) sumOf(ctx context.Context, field string) (int64, error) {
	features, err := c.client.Query(ctx, covid.TableCountry, covid.QueryOptions{
		Statistics: []covid.Statistic{{
			StatisticType:         "sum",
			OnStatisticField:      field,
			OutStatisticFieldName: "value",
		}},
	})
	if err != nil {
		return 0, err
	}
	if len(features) == 0 {
		return 0, errs.New(errs.RemoteQuery, "sum query for "+field+" returned no features")
	}
	return cast.ToInt64(features[0].Attributes["value"]), nil
}

// Summary composes the global picture: worldwide sums, the affected
// country count and the three most affected countries and provinces.
func (c *Commands) Summary(ctx context.Context) (*dispatch.Message, error) {
	confirmed, err := c.sumOf(ctx, models.FieldConfirmed)
	if err != nil {
		return nil, err
	}
	recovered, err := c.sumOf(ctx, models.FieldRecovered)
	if err != nil {
		return nil, err
	}
	deaths, err := c.sumOf(ctx, models.FieldDeaths)
	if err != nil {
		return nil, err
	}
	countries, err := c.client.CountryCount(ctx)
	if err != nil {
		return nil, err
	}

	topCountries, err := c.client.Query(ctx, covid.TableCountry, covid.QueryOptions{
		OutFields: []string{models.AttrCountry, models.FieldConfirmed},
		OrderBy:   "Confirmed desc",
		Limit:     3,
	})
	if err != nil {
		return nil, err
	}
	topProvinces, err := c.client.Query(ctx, covid.TableProvince, covid.QueryOptions{
		OutFields: []string{models.AttrProvince, models.FieldConfirmed},
		OrderBy:   "Confirmed desc",
		Limit:     3,
	})
	if err != nil {
		return nil, err
	}

	msg := &dispatch.Message{
		Title: "Global COVID-19 Status",
		Fields: []dispatch.Field{
			{Name: "Total Confirmed", Value: cast.ToString(confirmed)},
			{Name: "Total Recovered", Value: cast.ToString(recovered)},
			{Name: "Total Deaths", Value: cast.ToString(deaths)},
			{Name: "Affected Countries Count", Value: cast.ToString(countries)},
			{Name: "Most Affected Countries", Value: topList(topCountries, models.AttrCountry)},
			{Name: "Most Affected Province", Value: topList(topProvinces, models.AttrProvince)},
		},
	}
	return msg, nil
}

func topList(features []covid.Feature, nameAttr string) string {
	lines := make([]string, 0, len(features))
	for _, f := range features {
		lines = append(lines, fmt.Sprintf("%s: %s",
			cast.ToString(f.Attributes[nameAttr]),
			cast.ToString(cast.ToInt64(f.Attributes[models.FieldConfirmed]))))
	}
	return strings.Join(lines, "\n")
}

// Rank lists countries ordered by confirmed cases descending, starting at
// the given one-based position. The window is clamped downward so it never
// runs past the end of the list.
func (c *Commands) Rank(ctx context.Context, start, count int) (*dispatch.Message, error) {
	if start < 1 {
		return nil, errs.New(errs.InvalidArgument, "invalid starting point")
	}
	if count != 3 && count != 6 && count != 9 {
		return nil, errs.New(errs.InvalidArgument, "number of countries to show should be either 3, 6 or 9")
	}

	total, err := c.client.CountryCount(ctx)
	if err != nil {
		return nil, err
	}
	if start+count-1 > total {
		start = total - count + 1
		if start < 1 {
			start = 1
		}
	}

	features, err := c.client.Query(ctx, covid.TableCountry, covid.QueryOptions{
		OutFields: []string{models.AttrCountry, models.FieldConfirmed,
			models.FieldDeaths, models.FieldRecovered},
		OrderBy: "Confirmed desc",
		Offset:  start - 1,
		Limit:   count,
	})
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, errs.New(errs.NotFound, "no data, try reducing the start value")
	}

	msg := &dispatch.Message{
		Title: "Affected Country List of COVID-19",
		Body: fmt.Sprintf("Showing first %d to %d countries infected by the disease. Total affected countries: %d",
			start, start+len(features)-1, total),
	}
	for i, f := range features {
		msg.Fields = append(msg.Fields, dispatch.Field{
			Name: fmt.Sprintf("#%d %s", start+i, cast.ToString(f.Attributes[models.AttrCountry])),
			Value: fmt.Sprintf("Confirmed: %d\nDeaths: %d\nRecovered: %d",
				cast.ToInt64(f.Attributes[models.FieldConfirmed]),
				cast.ToInt64(f.Attributes[models.FieldDeaths]),
				cast.ToInt64(f.Attributes[models.FieldRecovered])),
		})
	}
	return msg, nil
}

// Status reports the current numbers for one country, province or state.
// Countries additionally get the summed case deltas of the last 48 hours
// and their position in the global ranking.
func (c *Commands) Status(ctx context.Context, name string) (*dispatch.Message, error) {
	name, err := normalizeRegion(name)
	if err != nil {
		return nil, err
	}

	attrs, matchedKey, err := c.resolveRegion(ctx, name,
		[]string{"Active", "Incident_Rate", "People_Tested"})
	if err != nil {
		return nil, err
	}

	regionName := cast.ToString(attrs[matchedKey])
	description := ""
	if matchedKey == models.AttrCountry {
		deltaConfirmed, deltaRecovered, err := c.recentDeltas(ctx, regionName)
		if err != nil {
			return nil, err
		}
		attrs["Delta_Confirmed"] = deltaConfirmed
		attrs["Delta_Recovered"] = deltaRecovered

		list, err := c.client.CountryList(ctx)
		if err != nil {
			return nil, err
		}
		for i, country := range list {
			if country == regionName {
				description = fmt.Sprintf("Country ranked #%d", i+1)
				break
			}
		}
	} else {
		description = fmt.Sprintf("%s, %s", regionName, cast.ToString(attrs[models.AttrCountry]))
	}

	msg := &dispatch.Message{
		Title: regionName + "'s COVID-19 Status",
		Body:  description,
	}
	for _, field := range statusFields {
		val, ok := attrs[field.attr]
		if !ok || cast.ToFloat64(val) == 0 {
			continue
		}
		msg.Fields = append(msg.Fields, dispatch.Field{Name: field.label, Value: cast.ToString(val)})
	}
	if ts := cast.ToInt64(attrs[models.AttrLastUpdate]); ts != 0 {
		msg.Timestamp = time.UnixMilli(ts).UTC()
	}
	return msg, nil
}

// recentDeltas sums per-day case deltas over the last 48 hours from the
// time-series table. Rows with a missing timestamp or value count as zero.
func (c *Commands) recentDeltas(ctx context.Context, country string) (int64, int64, error) {
	features, err := c.client.Query(ctx, covid.TableTimeSeries, covid.QueryOptions{
		Where:     fmt.Sprintf("%s='%s'", models.AttrCountry, country),
		OutFields: []string{"Delta_Confirmed", "Delta_Recovered", models.AttrLastUpdate},
		OrderBy:   "Last_Update desc",
	})
	if err != nil {
		return 0, 0, err
	}

	threshold := time.Now().Add(-deltaWindow).UnixMilli()
	var confirmed, recovered int64
	for _, f := range features {
		ts := cast.ToInt64(f.Attributes[models.AttrLastUpdate])
		if ts == 0 || ts < threshold {
			continue
		}
		confirmed += cast.ToInt64(f.Attributes["Delta_Confirmed"])
		recovered += cast.ToInt64(f.Attributes["Delta_Recovered"])
	}
	return confirmed, recovered, nil
}
