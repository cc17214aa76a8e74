package models

import (
	"github.com/spf13/cast"
)

// Attribute names as returned by the statistics API. Subscription records
// persist the tracked numeric fields verbatim under these names.
const (
	FieldConfirmed = "Confirmed"
	FieldDeaths    = "Deaths"
	FieldRecovered = "Recovered"

	AttrCountry    = "Country_Region"
	AttrProvince   = "Province_State"
	AttrLastUpdate = "Last_Update"
)

// TrackedFields are the numeric attributes a subscription follows between
// reconcile cycles.
var TrackedFields = []string{FieldConfirmed, FieldDeaths, FieldRecovered}

// Namespace is the top-level store key all guild subscription state lives
// under.
const Namespace = "corona"

const (
	docKeyChannelID     = "ID"
	docKeyCountry       = "Country"
	docKeyProvince      = "Province"
	docKeyMeta          = "meta"
	docKeySubscriptions = "subscriptions"
	docKeyInstanceName  = "instanceName"
	docKeyLastExec      = "lastExec"
)

// SubscriptionRecord is one channel's subscription to a region's status
// updates. Exactly one of Country/Province is set.
type SubscriptionRecord struct {
	ChannelID int64
	Country   string
	Province  string
	Values    map[string]int64
}

func (s SubscriptionRecord) IsCountry() bool {
	return s.Country != ""
}

// RegionName returns the subscribed region's bare name (without the parent
// country a province belongs to).
func (s SubscriptionRecord) RegionName() string {
	if s.IsCountry() {
		return s.Country
	}
	return s.Province
}

// GuildMeta coordinates multiple bot instances sharing one store: the name
// of the instance that last processed the guild and when. A heuristic, not
// a distributed lock.
type GuildMeta struct {
	InstanceName string
	LastExec     int64
}

// GuildState is everything persisted for one guild under the "corona"
// namespace.
type GuildState struct {
	Meta          GuildMeta
	Subscriptions []SubscriptionRecord
}

func (s SubscriptionRecord) Doc() *Document {
	doc := NewDocument()
	if s.IsCountry() {
		doc.Set(docKeyCountry, s.Country)
	} else {
		doc.Set(docKeyProvince, s.Province)
	}
	for _, field := range TrackedFields {
		doc.Set(field, s.Values[field])
	}
	doc.Set(docKeyChannelID, s.ChannelID)
	return doc
}

func SubscriptionFromDoc(doc *Document) SubscriptionRecord {
	rec := SubscriptionRecord{Values: make(map[string]int64, len(TrackedFields))}
	if v, ok := doc.Get(docKeyCountry); ok {
		rec.Country = cast.ToString(v)
	}
	if v, ok := doc.Get(docKeyProvince); ok {
		rec.Province = cast.ToString(v)
	}
	if v, ok := doc.Get(docKeyChannelID); ok {
		rec.ChannelID = cast.ToInt64(v)
	}
	for _, field := range TrackedFields {
		if v, ok := doc.Get(field); ok {
			rec.Values[field] = cast.ToInt64(v)
		}
	}
	return rec
}

func (g GuildState) Doc() *Document {
	meta := NewDocument()
	meta.Set(docKeyInstanceName, g.Meta.InstanceName)
	meta.Set(docKeyLastExec, g.Meta.LastExec)

	subs := make([]any, len(g.Subscriptions))
	for i, rec := range g.Subscriptions {
		subs[i] = rec.Doc()
	}

	doc := NewDocument()
	doc.Set(docKeyMeta, meta)
	doc.Set(docKeySubscriptions, subs)
	return doc
}

func GuildStateFromDoc(doc *Document) GuildState {
	var state GuildState
	if v, ok := doc.Get(docKeyMeta); ok {
		if meta, ok := v.(*Document); ok {
			if name, ok := meta.Get(docKeyInstanceName); ok {
				state.Meta.InstanceName = cast.ToString(name)
			}
			if ts, ok := meta.Get(docKeyLastExec); ok {
				state.Meta.LastExec = cast.ToInt64(ts)
			}
		}
	}
	if v, ok := doc.Get(docKeySubscriptions); ok {
		if list, ok := v.([]any); ok {
			state.Subscriptions = make([]SubscriptionRecord, 0, len(list))
			for _, item := range list {
				if sub, ok := item.(*Document); ok {
					state.Subscriptions = append(state.Subscriptions, SubscriptionFromDoc(sub))
				}
			}
		}
	}
	return state
}
