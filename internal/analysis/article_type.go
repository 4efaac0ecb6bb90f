package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// defaultArticleTypeID is returned when no type clears its threshold.
	defaultArticleTypeID = "original_research"

	// defaultArticleTypeConfidence is the fallback confidence.
	defaultArticleTypeConfidence = 0.5

	// combinedTypeID is synthesized when a manuscript matches both
	// systematic-review and meta-analysis patterns.
	combinedTypeID = "systematic_review_meta_analysis"

	// combinedTypeMinConfidence is the relaxed secondary threshold for the
	// combination rule.
	combinedTypeMinConfidence = 0.1
)

// articlePattern is a named regex within a type definition.
type articlePattern struct {
	id string
	re *regexp.Regexp
}

// articleTypeDef defines one manuscript type: its pattern family, the number
// of distinct patterns that must match, and preferred venue types.
type articleTypeDef struct {
	typeID         string
	patterns       []articlePattern
	requiredCount  int
	preferredTypes []string
}

func pat(id, expr string) articlePattern {
	return articlePattern{id: id, re: regexp.MustCompile(expr)}
}

// articleTypeTable defines the recognized manuscript types. Patterns match
// against lowercased title+abstract text.
var articleTypeTable = []articleTypeDef{
	{
		typeID: "systematic_review",
		patterns: []articlePattern{
			pat("sr_phrase", `systematic review`),
			pat("sr_prisma", `\bprisma\b`),
			pat("sr_databases", `(searched|search of) (pubmed|medline|embase|scopus|web of science|cochrane)`),
			pat("sr_inclusion", `inclusion (and exclusion )?criteria`),
			pat("sr_screening", `(screened|screening) (titles|abstracts|records|studies)`),
		},
		requiredCount:  2,
		preferredTypes: []string{"review journal", "specialty journal"},
	},
	{
		typeID: "meta_analysis",
		patterns: []articlePattern{
			pat("ma_phrase", `meta.?analys[ie]s`),
			pat("ma_pooled", `pooled (estimate|analysis|odds ratio|risk ratio|effect)`),
			pat("ma_heterogeneity", `heterogeneity|i\^?2 statistic|i2 =`),
			pat("ma_forest", `forest plot`),
			pat("ma_random_effects", `(random|fixed).effects? model`),
		},
		requiredCount:  2,
		preferredTypes: []string{"review journal", "specialty journal"},
	},
	{
		typeID: "randomized_controlled_trial",
		patterns: []articlePattern{
			pat("rct_phrase", `randomi[sz]ed controlled trial|\brct\b`),
			pat("rct_assign", `randomly (assigned|allocated)`),
			pat("rct_placebo", `placebo.controlled|double.blind|single.blind`),
			pat("rct_arm", `(treatment|control|intervention) (arm|group)`),
			pat("rct_registry", `clinicaltrials\.gov|trial registration`),
		},
		requiredCount:  2,
		preferredTypes: []string{"clinical journal", "specialty journal"},
	},
	{
		typeID: "clinical_trial",
		patterns: []articlePattern{
			pat("ct_phrase", `clinical trial`),
			pat("ct_phase", `phase (i{1,3}v?|[1-4])\b.{0,20}(trial|study)`),
			pat("ct_enrolled", `(enrolled|recruited) \d+ (patients|participants|subjects)`),
			pat("ct_endpoint", `primary (endpoint|outcome)`),
		},
		requiredCount:  2,
		preferredTypes: []string{"clinical journal", "specialty journal"},
	},
	{
		typeID: "case_report",
		patterns: []articlePattern{
			pat("cr_phrase", `case report|we (report|present|describe) a (case|patient)`),
			pat("cr_rare", `rare (case|presentation|complication)`),
			pat("cr_patient", `a \d{1,3}.year.old (man|woman|male|female|patient|boy|girl)`),
		},
		requiredCount:  1,
		preferredTypes: []string{"case reports journal", "specialty journal"},
	},
	{
		typeID: "cohort_study",
		patterns: []articlePattern{
			pat("cohort_phrase", `cohort study`),
			pat("cohort_follow", `(prospective|retrospective) (cohort|follow.up)`),
			pat("cohort_hazard", `hazard ratio`),
			pat("cohort_followed", `(followed|follow.up) (for|of|over) \d+ (years|months)`),
		},
		requiredCount:  2,
		preferredTypes: []string{"epidemiology journal", "specialty journal"},
	},
	{
		typeID: "case_control_study",
		patterns: []articlePattern{
			pat("cc_phrase", `case.control study`),
			pat("cc_matched", `matched (controls|for age|by age)`),
			pat("cc_odds", `odds ratio`),
		},
		requiredCount:  2,
		preferredTypes: []string{"epidemiology journal", "specialty journal"},
	},
	{
		typeID: "cross_sectional_study",
		patterns: []articlePattern{
			pat("cs_phrase", `cross.sectional (study|survey|analysis)`),
			pat("cs_prevalence", `prevalence of`),
			pat("cs_sample", `(representative|population.based) sample`),
		},
		requiredCount:  2,
		preferredTypes: []string{"epidemiology journal", "public health journal"},
	},
	{
		typeID: "narrative_review",
		patterns: []articlePattern{
			pat("nr_phrase", `(narrative|literature|scoping) review`),
			pat("nr_overview", `(this review|we review|overview of) (summarizes|the literature|recent advances|current)`),
			pat("nr_state", `state of the art`),
		},
		requiredCount:  1,
		preferredTypes: []string{"review journal"},
	},
	{
		typeID: "methodology",
		patterns: []articlePattern{
			pat("meth_phrase", `(novel|new|improved) (method|technique|protocol|approach|algorithm|framework)`),
			pat("meth_validation", `(validated|validation of) (the|our|this) (method|model|approach)`),
			pat("meth_benchmark", `benchmark(ed|ing)? against`),
		},
		requiredCount:  2,
		preferredTypes: []string{"methods journal", "specialty journal"},
	},
	{
		typeID: "qualitative_study",
		patterns: []articlePattern{
			pat("qual_phrase", `qualitative (study|research|analysis|interviews?)`),
			pat("qual_interview", `(semi.structured|in.depth) interviews?`),
			pat("qual_thematic", `thematic analysis|grounded theory`),
		},
		requiredCount:  2,
		preferredTypes: []string{"social science journal", "specialty journal"},
	},
	{
		typeID: "survey_study",
		patterns: []articlePattern{
			pat("svy_phrase", `(questionnaire|survey) (was|were) (administered|distributed|sent)`),
			pat("svy_respond", `response rate|respondents`),
			pat("svy_likert", `likert scale`),
		},
		requiredCount:  2,
		preferredTypes: []string{"specialty journal"},
	},
	{
		typeID: "editorial_commentary",
		patterns: []articlePattern{
			pat("ed_phrase", `(editorial|commentary|perspective|viewpoint|opinion) (on|piece|article)`),
			pat("ed_argue", `we argue that`),
		},
		requiredCount:  1,
		preferredTypes: []string{"general journal"},
	},
	{
		typeID: "original_research",
		patterns: []articlePattern{
			pat("or_aim", `(the aim|this study aimed|we aimed|the objective) (of this study )?(was|is) to`),
			pat("or_methods", `materials and methods`),
			pat("or_results", `our (results|findings) (show|demonstrate|indicate|suggest)`),
		},
		requiredCount:  1,
		preferredTypes: []string{"specialty journal", "general journal"},
	},
}

// ArticleTypeDetector classifies the manuscript type via regex pattern
// families with minimum-match thresholds. Pure and side-effect-free.
type ArticleTypeDetector struct{}

// NewArticleTypeDetector creates an article-type detector.
func NewArticleTypeDetector() *ArticleTypeDetector {
	return &ArticleTypeDetector{}
}

// typeMatch records every pattern hit for one type, whether or not the type
// cleared its own threshold. The combination rule reads these raw matches.
type typeMatch struct {
	def        articleTypeDef
	confidence float64
	evidence   []string
}

// candidate is a type that cleared its threshold.
type candidate struct {
	def        articleTypeDef
	confidence float64
	evidence   []string
}

// Detect returns the single best article type. When a manuscript is a full
// systematic review or meta-analysis and the other constituent clears a
// relaxed secondary threshold, the combined type is synthesized and takes
// priority. Falls back to original_research at confidence 0.5.
func (d *ArticleTypeDetector) Detect(title, abstract string) domain.DetectedArticleType {
	text := strings.ToLower(title + " " + abstract)

	matches := make(map[string]typeMatch, len(articleTypeTable))
	var candidates []candidate
	for _, def := range articleTypeTable {
		var evidence []string
		for _, p := range def.patterns {
			if p.re.MatchString(text) {
				evidence = append(evidence, p.id)
			}
		}
		if len(evidence) == 0 {
			continue
		}
		confidence := float64(len(evidence)) / float64(len(def.patterns)) * 2
		if confidence > 1.0 {
			confidence = 1.0
		}
		matches[def.typeID] = typeMatch{def: def, confidence: confidence, evidence: evidence}
		if len(evidence) >= def.requiredCount {
			candidates = append(candidates, candidate{def: def, confidence: confidence, evidence: evidence})
		}
	}

	if len(candidates) == 0 {
		return domain.DetectedArticleType{
			TypeID:                defaultArticleTypeID,
			Confidence:            defaultArticleTypeConfidence,
			PreferredJournalTypes: preferredTypesFor(defaultArticleTypeID),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})

	// Manuscripts that are both a systematic review and a meta-analysis get
	// the combined type, which beats returning either alone.
	if combined, ok := combineReviewTypes(matches); ok {
		return combined
	}

	best := candidates[0]
	return domain.DetectedArticleType{
		TypeID:                best.def.typeID,
		Confidence:            best.confidence,
		Evidence:              best.evidence,
		PreferredJournalTypes: best.def.preferredTypes,
	}
}

// combineReviewTypes synthesizes the systematic_review_meta_analysis type.
// One constituent must fully clear its own pattern threshold; the other only
// needs raw match confidence above the relaxed threshold, so a systematic
// review mentioning a meta-analysis once still combines.
func combineReviewTypes(matches map[string]typeMatch) (domain.DetectedArticleType, bool) {
	sr, srOK := matches["systematic_review"]
	ma, maOK := matches["meta_analysis"]
	if !srOK || !maOK {
		return domain.DetectedArticleType{}, false
	}
	if sr.confidence <= combinedTypeMinConfidence || ma.confidence <= combinedTypeMinConfidence {
		return domain.DetectedArticleType{}, false
	}
	srFull := len(sr.evidence) >= sr.def.requiredCount
	maFull := len(ma.evidence) >= ma.def.requiredCount
	if !srFull && !maFull {
		return domain.DetectedArticleType{}, false
	}

	confidence := sr.confidence
	if ma.confidence > confidence {
		confidence = ma.confidence
	}
	evidence := append(append([]string{}, sr.evidence...), ma.evidence...)

	return domain.DetectedArticleType{
		TypeID:                combinedTypeID,
		Confidence:            confidence,
		Evidence:              evidence,
		PreferredJournalTypes: sr.def.preferredTypes,
	}, true
}

// preferredTypesFor looks up the preferred venue types for a type ID.
func preferredTypesFor(typeID string) []string {
	for _, def := range articleTypeTable {
		if def.typeID == typeID {
			return def.preferredTypes
		}
	}
	return nil
}
