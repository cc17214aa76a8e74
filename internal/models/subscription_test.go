package models

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() GuildState {
	return GuildState{
		Meta: GuildMeta{InstanceName: "bot-1", LastExec: 1700000000},
		Subscriptions: []SubscriptionRecord{
			{
				ChannelID: 42,
				Country:   "France",
				Values:    map[string]int64{FieldConfirmed: 100, FieldDeaths: 10, FieldRecovered: 50},
			},
			{
				ChannelID: 43,
				Province:  "Hubei",
				Values:    map[string]int64{FieldConfirmed: 200, FieldDeaths: 20, FieldRecovered: 150},
			},
		},
	}
}

func TestSubscriptionRecord_RegionName(t *testing.T) {
	country := SubscriptionRecord{Country: "France"}
	province := SubscriptionRecord{Province: "Hubei"}

	assert.True(t, country.IsCountry())
	assert.Equal(t, "France", country.RegionName())
	assert.False(t, province.IsCountry())
	assert.Equal(t, "Hubei", province.RegionName())
}

func TestGuildState_DocRoundTrip(t *testing.T) {
	state := sampleState()

	got := GuildStateFromDoc(state.Doc())

	assert.Equal(t, state.Meta, got.Meta)
	require.Len(t, got.Subscriptions, 2)
	assert.Equal(t, state.Subscriptions[0], got.Subscriptions[0])
	assert.Equal(t, state.Subscriptions[1], got.Subscriptions[1])
}

func TestGuildState_SurvivesJSONRoundTrip(t *testing.T) {
	state := sampleState()

	root := NewDocument()
	root.Set(712, state.Doc())

	encoded, err := Encode(root)
	require.NoError(t, err)

	raw, err := json.Marshal(encoded)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))

	decoded := Decode(parsed)
	val, ok := decoded.Get(712)
	require.True(t, ok)

	got := GuildStateFromDoc(val.(*Document))
	assert.Equal(t, state.Meta, got.Meta)
	require.Len(t, got.Subscriptions, 2)
	assert.Equal(t, "France", got.Subscriptions[0].Country)
	assert.Equal(t, int64(42), got.Subscriptions[0].ChannelID)
	assert.Equal(t, int64(100), got.Subscriptions[0].Values[FieldConfirmed])
	assert.Equal(t, "Hubei", got.Subscriptions[1].Province)
}

func TestGuildStateFromDoc_EmptyDoc(t *testing.T) {
	got := GuildStateFromDoc(NewDocument())
	assert.Empty(t, got.Meta.InstanceName)
	assert.Empty(t, got.Subscriptions)
}
