package upstream

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wikirecon/reconcile/internal/wikidata/value"
)

// Entity is the parsed form of a wbgetentities result: still full-size
// (all languages, all ranks), decoded into value.Value terms. The entity
// store minifies this further before caching.
type Entity struct {
	ID           string
	Missing      bool
	Labels       map[string]string
	Descriptions map[string]string
	Aliases      map[string][]string
	Claims       map[string][]Claim
	Sitelinks    map[string]string
}

type Reference struct {
	Snaks map[string][]value.Value
}

type Claim struct {
	Property   string
	Value      value.Value
	Rank       string // "preferred", "normal", "deprecated"
	Qualifiers map[string][]value.Value
	References []Reference
}

// DecodeEntities converts the raw wbgetentities payload for a batch of ids
// into parsed Entity values.
func DecodeEntities(raw map[string]rawEntity) map[string]Entity {
	out := make(map[string]Entity, len(raw))
	for id, r := range raw {
		out[id] = decodeEntity(r)
	}
	return out
}

func decodeEntity(r rawEntity) Entity {
	e := Entity{
		ID:           r.ID,
		Missing:      r.Missing != nil,
		Labels:       map[string]string{},
		Descriptions: map[string]string{},
		Aliases:      map[string][]string{},
		Claims:       map[string][]Claim{},
		Sitelinks:    map[string]string{},
	}
	for lang, m := range r.Labels {
		e.Labels[lang] = m.Value
	}
	for lang, m := range r.Descriptions {
		e.Descriptions[lang] = m.Value
	}
	for lang, ms := range r.Aliases {
		for _, m := range ms {
			e.Aliases[lang] = append(e.Aliases[lang], m.Value)
		}
	}
	for site, s := range r.Sitelinks {
		e.Sitelinks[site] = s.Title
	}
	for pid, claims := range r.Claims {
		for _, rc := range claims {
			claim := Claim{
				Property:   pid,
				Value:      decodeSnak(rc.Mainsnak),
				Rank:       rc.Rank,
				Qualifiers: map[string][]value.Value{},
			}
			for qpid, snaks := range rc.Qualifiers {
				for _, s := range snaks {
					claim.Qualifiers[qpid] = append(claim.Qualifiers[qpid], decodeSnak(s))
				}
			}
			for _, ref := range rc.References {
				r := Reference{Snaks: map[string][]value.Value{}}
				for rpid, snaks := range ref.Snaks {
					for _, s := range snaks {
						r.Snaks[rpid] = append(r.Snaks[rpid], decodeSnak(s))
					}
				}
				claim.References = append(claim.References, r)
			}
			e.Claims[pid] = append(e.Claims[pid], claim)
		}
	}
	return e
}

func decodeSnak(s rawSnak) value.Value {
	if s.SnakType != "value" {
		return value.UndefinedValue{SnakType: s.SnakType}
	}
	if len(s.DataValue) == 0 {
		return value.UndefinedValue{SnakType: "unknown-datatype"}
	}

	var envelope struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(s.DataValue, &envelope); err != nil {
		return value.UndefinedValue{SnakType: "unknown-datatype"}
	}

	switch s.DataType {
	case "wikibase-item", "wikibase-property":
		var v struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(envelope.Value, &v) != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		return value.ItemValue{ID: v.ID}
	case "string":
		var s string
		_ = json.Unmarshal(envelope.Value, &s)
		return value.StringValue{Value: s}
	case "external-id":
		var s string
		_ = json.Unmarshal(envelope.Value, &s)
		return value.IdentifierValue{Value: s}
	case "commonsMedia":
		var s string
		_ = json.Unmarshal(envelope.Value, &s)
		return value.MediaValue{Filename: s}
	case "tabular-data":
		var s string
		_ = json.Unmarshal(envelope.Value, &s)
		return value.DataTableValue{Page: s}
	case "url":
		var s string
		_ = json.Unmarshal(envelope.Value, &s)
		return value.UrlValue{Value: s}
	case "quantity":
		var v struct {
			Amount string `json:"amount"`
			Unit   string `json:"unit"`
		}
		if json.Unmarshal(envelope.Value, &v) != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		amount, err := strconv.ParseFloat(strings.TrimPrefix(v.Amount, "+"), 64)
		if err != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		unit := v.Unit
		if unit == "1" || unit == "" {
			unit = ""
		} else {
			unit = lastPathSegment(unit)
		}
		return value.QuantityValue{Amount: amount, Unit: unit}
	case "monolingualtext":
		var v struct {
			Text     string `json:"text"`
			Language string `json:"language"`
		}
		if json.Unmarshal(envelope.Value, &v) != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		return value.MonolingualValue{Text: v.Text, Language: v.Language}
	case "globe-coordinate":
		var v struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Precision float64 `json:"precision"`
			Globe     string  `json:"globe"`
		}
		if json.Unmarshal(envelope.Value, &v) != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		return value.CoordsValue{Latitude: v.Latitude, Longitude: v.Longitude, Precision: v.Precision, Globe: v.Globe}
	case "time":
		var v struct {
			Time      string `json:"time"`
			Precision int    `json:"precision"`
			Calendar  string `json:"calendarmodel"`
		}
		if json.Unmarshal(envelope.Value, &v) != nil {
			return value.UndefinedValue{SnakType: "unknown-datatype"}
		}
		year, month, day := parseWikibaseTime(v.Time)
		return value.TimeValue{Year: year, Month: month, Day: day, Precision: v.Precision, Calendar: v.Calendar}
	default:
		return value.UndefinedValue{SnakType: "unknown-datatype"}
	}
}

// parseWikibaseTime parses the "+1969-07-20T00:00:00Z" form used in
// datavalue.time into its broken-down components.
func parseWikibaseTime(s string) (year, month, day int) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimPrefix(s, "-")
	datePart, _, _ := strings.Cut(s, "T")
	fields := strings.SplitN(datePart, "-", 3)
	if len(fields) >= 1 {
		year, _ = strconv.Atoi(fields[0])
	}
	if len(fields) >= 2 {
		month, _ = strconv.Atoi(fields[1])
	}
	if len(fields) >= 3 {
		day, _ = strconv.Atoi(fields[2])
	}
	if neg {
		year = -year
	}
	return year, month, day
}
