// Package openalex provides a client for the OpenAlex API tailored to
// journal discovery: full-text search over works and sources, source
// hydration, and server-side group-by aggregation of works by hosting venue.
//
// API Documentation: https://docs.openalex.org/
package openalex

import (
	"strconv"
	"strings"
)

// WorksResponse is the top-level response from the works search endpoint.
type WorksResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// SourcesResponse is the top-level response from the sources search endpoint.
type SourcesResponse struct {
	Meta    Meta     `json:"meta"`
	Results []Source `json:"results"`
}

// GroupByResponse is the response shape for group_by aggregation queries.
type GroupByResponse struct {
	Meta     Meta         `json:"meta"`
	GroupBys []GroupCount `json:"group_by"`
}

// GroupCount is one bucket of a group-by aggregation.
type GroupCount struct {
	Key            string `json:"key"`
	KeyDisplayName string `json:"key_display_name"`
	Count          int    `json:"count"`
}

// Meta contains result metadata including pagination info.
type Meta struct {
	Count   int `json:"count"`
	DBTime  int `json:"db_response_time_ms"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// EntityRef is a minimal reference to a taxonomy entity (subfield, field,
// domain): an identifier URL plus a display name.
type EntityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Topic is one entry of the provider's four-level taxonomy attached to a
// work or source.
type Topic struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Score       float64   `json:"score"`
	Subfield    EntityRef `json:"subfield"`
	Field       EntityRef `json:"field"`
	Domain      EntityRef `json:"domain"`
}

// NamedScore is a scored keyword attached to a work.
type NamedScore struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// Concept is an entry of the legacy concept taxonomy. Level 0-1 concepts are
// broad field hints, deeper levels are methodology hints.
type Concept struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}

// Work is an academic work record, carrying the topic classifications the
// discipline detectors vote over.
type Work struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	Type            string       `json:"type"`
	CitedByCount    int          `json:"cited_by_count"`
	PrimaryTopic    *Topic       `json:"primary_topic"`
	Topics          []Topic      `json:"topics"`
	Keywords        []NamedScore `json:"keywords"`
	Concepts        []Concept    `json:"concepts"`
	PrimaryLocation *Location    `json:"primary_location"`
}

// Location is where a work is hosted.
type Location struct {
	Source *SourceRef `json:"source"`
}

// SourceRef is the venue reference embedded in a work's location.
type SourceRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	ISSNL       string `json:"issn_l"`
}

// SummaryStats carries a source's bibliometric indicators.
type SummaryStats struct {
	TwoYrMeanCitedness float64 `json:"2yr_mean_citedness"`
	HIndex             int     `json:"h_index"`
	I10Index           int     `json:"i10_index"`
}

// Source is a full publication-venue record.
type Source struct {
	ID                   string       `json:"id"`
	DisplayName          string       `json:"display_name"`
	ISSNL                string       `json:"issn_l"`
	Type                 string       `json:"type"`
	HostOrganizationName string       `json:"host_organization_name"`
	IsOA                 bool         `json:"is_oa"`
	IsInDOAJ             bool         `json:"is_in_doaj"`
	WorksCount           int          `json:"works_count"`
	CitedByCount         int          `json:"cited_by_count"`
	SummaryStats         SummaryStats `json:"summary_stats"`
	Topics               []Topic      `json:"topics"`
}

// ShortID strips the OpenAlex URL prefix from an entity identifier,
// returning e.g. "S137773608" from "https://openalex.org/S137773608".
func ShortID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// NumericIDFromURL extracts the trailing numeric ID from a taxonomy entity
// URL, e.g. 2740 from "https://openalex.org/subfields/2740". Returns 0 when
// no numeric suffix exists.
func NumericIDFromURL(id string) int {
	suffix := ShortID(id)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return n
}
