package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/verification"
)

// Response types for JSON serialization.

type disciplineResponse struct {
	Name         string   `json:"name"`
	Confidence   float64  `json:"confidence"`
	Evidence     []string `json:"evidence,omitempty"`
	FieldName    string   `json:"field,omitempty"`
	SubfieldName string   `json:"subfield,omitempty"`
	DomainName   string   `json:"domain,omitempty"`
	Source       string   `json:"source"`
}

type keywordResponse struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

type articleTypeResponse struct {
	TypeID     string   `json:"type_id"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

type confidenceFactorResponse struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
	Passed  bool    `json:"passed"`
	Details string  `json:"details,omitempty"`
}

type confidenceResponse struct {
	Overall            float64                    `json:"overall"`
	Factors            []confidenceFactorResponse `json:"factors,omitempty"`
	NeedsLLMEnrichment bool                       `json:"needs_llm_enrichment"`
	Reasons            []string                   `json:"reasons,omitempty"`
}

type enrichmentResponse struct {
	Applied       bool     `json:"applied"`
	AddedKeywords []string `json:"added_keywords,omitempty"`
	BoostApplied  float64  `json:"boost_applied,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type analysisResponse struct {
	SearchTerms   []string             `json:"search_terms"`
	Disciplines   []disciplineResponse `json:"disciplines"`
	ArticleType   articleTypeResponse  `json:"article_type"`
	Keywords      []keywordResponse    `json:"keywords"`
	TopicIDs      []string             `json:"topic_ids,omitempty"`
	WorksAnalyzed int                  `json:"works_analyzed"`
	Confidence    confidenceResponse   `json:"confidence"`
	LLMUsed       bool                 `json:"llm_used"`
	Enrichment    *enrichmentResponse  `json:"enrichment,omitempty"`
}

type journalMetricsResponse struct {
	HIndex             int     `json:"h_index"`
	WorksCount         int     `json:"works_count"`
	CitedByCount       int     `json:"cited_by_count"`
	TwoYrMeanCitedness float64 `json:"two_year_mean_citedness"`
}

type verificationResponse struct {
	Status         string   `json:"status"`
	ISSNValid      bool     `json:"issn_valid"`
	QualitySignals []string `json:"quality_signals,omitempty"`
	Issues         []string `json:"issues,omitempty"`
}

type journalResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	ISSN           string                 `json:"issn,omitempty"`
	Publisher      string                 `json:"publisher,omitempty"`
	OpenAccess     bool                   `json:"open_access"`
	InDOAJ         bool                   `json:"in_doaj"`
	Metrics        journalMetricsResponse `json:"metrics"`
	Topics         []string               `json:"topics,omitempty"`
	Category       string                 `json:"category"`
	RelevanceScore float64                `json:"relevance_score"`
	MatchReason    string                 `json:"match_reason,omitempty"`
	MatchDetails   []string               `json:"match_details,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	Verification   *verificationResponse  `json:"verification,omitempty"`
}

type recommendResponse struct {
	SearchID   string            `json:"search_id"`
	Journals   []journalResponse `json:"journals"`
	TotalCount int               `json:"total_count"`
	Analysis   analysisResponse  `json:"analysis"`
	DurationMS int64             `json:"duration_ms"`
}

// Converter functions

func analysisToResponse(r *domain.AnalysisResult) analysisResponse {
	disciplines := make([]disciplineResponse, len(r.Disciplines))
	for i, d := range r.Disciplines {
		disciplines[i] = disciplineResponse{
			Name:         d.Name,
			Confidence:   d.Confidence,
			Evidence:     d.Evidence,
			FieldName:    d.FieldName,
			SubfieldName: d.SubfieldName,
			DomainName:   d.DomainName,
			Source:       string(d.Source),
		}
	}

	keywords := make([]keywordResponse, len(r.Keywords))
	for i, k := range r.Keywords {
		keywords[i] = keywordResponse{
			Text:   k.Text,
			Score:  k.Score,
			Source: string(k.Source),
		}
	}

	factors := make([]confidenceFactorResponse, len(r.Confidence.Factors))
	for i, f := range r.Confidence.Factors {
		factors[i] = confidenceFactorResponse{
			Name:    f.Name,
			Score:   f.Score,
			Weight:  f.Weight,
			Passed:  f.Passed,
			Details: f.Details,
		}
	}

	resp := analysisResponse{
		SearchTerms: r.SearchTerms,
		Disciplines: disciplines,
		ArticleType: articleTypeResponse{
			TypeID:     r.ArticleType.TypeID,
			Confidence: r.ArticleType.Confidence,
			Evidence:   r.ArticleType.Evidence,
		},
		Keywords:      keywords,
		TopicIDs:      r.TopicIDs,
		WorksAnalyzed: r.WorksAnalyzed,
		Confidence: confidenceResponse{
			Overall:            r.Confidence.Overall,
			Factors:            factors,
			NeedsLLMEnrichment: r.Confidence.NeedsLLMEnrichment,
			Reasons:            r.Confidence.Reasons,
		},
		LLMUsed: r.LLMUsed,
	}
	if r.Enrichment != nil {
		resp.Enrichment = &enrichmentResponse{
			Applied:       r.Enrichment.Applied,
			AddedKeywords: r.Enrichment.AddedKeywords,
			BoostApplied:  r.Enrichment.BoostApplied,
			Error:         r.Enrichment.Error,
		}
	}
	return resp
}

func journalToResponse(j *domain.Journal) journalResponse {
	return journalResponse{
		ID:         j.ID,
		Name:       j.Name,
		ISSN:       j.ISSN,
		Publisher:  j.Publisher,
		OpenAccess: j.IsOpenAccess,
		InDOAJ:     j.IsInDOAJ,
		Metrics: journalMetricsResponse{
			HIndex:             j.Metrics.HIndex,
			WorksCount:         j.Metrics.WorksCount,
			CitedByCount:       j.Metrics.CitedByCount,
			TwoYrMeanCitedness: j.Metrics.TwoYrMeanCitedness,
		},
		Topics:         j.Topics,
		Category:       string(j.Category),
		RelevanceScore: j.RelevanceScore,
		MatchReason:    j.MatchReason,
		MatchDetails:   j.MatchDetails,
		Warnings:       j.Warnings,
	}
}

func verificationToResponse(r verification.Result) verificationResponse {
	return verificationResponse{
		Status:         string(r.Status),
		ISSNValid:      r.ISSNValid,
		QualitySignals: r.QualitySignals,
		Issues:         r.Issues,
	}
}

func buildRecommendResponse(
	searchID uuid.UUID,
	analysis *domain.AnalysisResult,
	journals []domain.Journal,
	verifications []verificationResponse,
	duration time.Duration,
) recommendResponse {
	out := make([]journalResponse, len(journals))
	for i := range journals {
		out[i] = journalToResponse(&journals[i])
		if i < len(verifications) {
			v := verifications[i]
			out[i].Verification = &v
		}
	}
	return recommendResponse{
		SearchID:   searchID.String(),
		Journals:   out,
		TotalCount: len(out),
		Analysis:   analysisToResponse(analysis),
		DurationMS: duration.Milliseconds(),
	}
}
