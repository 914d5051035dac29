package algolia

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"webinar_archive/internal/domain"
)

// SearchRequest is the multi-query body accepted by the upstream endpoint.
type SearchRequest struct {
	Requests []IndexQuery `json:"requests"`
}

type IndexQuery struct {
	IndexName string      `json:"indexName"`
	Params    QueryParams `json:"params"`
}

type QueryParams struct {
	FacetFilters      [][]string `json:"facetFilters"`
	Facets            []string   `json:"facets"`
	HighlightPostTag  string     `json:"highlightPostTag"`
	HighlightPreTag   string     `json:"highlightPreTag"`
	HitsPerPage       int        `json:"hitsPerPage"`
	MaxValuesPerFacet int        `json:"maxValuesPerFacet"`
	NumericFilters    []string   `json:"numericFilters"`
	Page              int        `json:"page"`
	Query             string     `json:"query"`
}

// SearchResponse represents the upstream response structure.
type SearchResponse struct {
	Results []Result `json:"results"`
}

type Result struct {
	Hits    []Hit `json:"hits"`
	NbPages *int  `json:"nbPages"`
	Page    int   `json:"page"`
}

type Hit struct {
	ObjectID           domain.ID  `json:"objectID"`
	WebcastID          domain.ID  `json:"webcastId"`
	Title              *string    `json:"title"`
	URL                *string    `json:"url"`
	Description        *string    `json:"description"`
	StartDate          string     `json:"startDate"`
	StartTime          string     `json:"startTime"`
	EndDate            string     `json:"endDate"`
	EndTime            string     `json:"endTime"`
	StartDateTimestamp FlexInt    `json:"startDateTimestamp"`
	EndDateTimestamp   FlexInt    `json:"endDateTimestamp"`
	CreatedAtTimestamp FlexInt    `json:"createdAtTimestamp"`
	Type               string     `json:"type"`
	Facets             HitFacets  `json:"facets"`
	Language           StringList `json:"language"`
}

type HitFacets struct {
	FocusArea StringList `json:"focusArea"`
}

// FlexInt accepts a JSON number or a numeric string. Anything else leaves
// Valid false instead of failing the whole page decode.
type FlexInt struct {
	Value int64
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		f.Value, f.Valid = v, true
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		f.Value, f.Valid = int64(v), true
	}
	return nil
}

// StringList accepts either a single string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*l = StringList{s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	*l = list
	return nil
}
