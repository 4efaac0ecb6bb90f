package analysis

import (
	"sort"
	"strings"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// primaryKeywordWeight is the score contribution of a primary keyword match.
	primaryKeywordWeight = 0.3

	// secondaryKeywordWeight is the score contribution of a secondary keyword match.
	secondaryKeywordWeight = 0.15

	// DefaultKeywordDetectorMinConfidence drops disciplines scoring below it.
	DefaultKeywordDetectorMinConfidence = 0.15
)

// disciplineDef is one row of the curated discipline table: keyword sets plus
// the static mapping to the provider field/subfield taxonomy.
type disciplineDef struct {
	name       string
	primary    []string
	secondary  []string
	fieldName  string
	subfield   string
	subfieldID int
	domainName string
}

// disciplineTable is the curated discipline->keyword table. Subfield IDs
// follow the provider's numeric subfield convention.
var disciplineTable = []disciplineDef{
	{
		name:      "cardiology",
		primary:   []string{"cardiac", "cardiovascular", "myocardial", "heart failure", "coronary", "arrhythmia"},
		secondary: []string{"hypertension", "atrial", "ventricular", "ecg", "stent", "ischemia"},
		fieldName: "Medicine", subfield: "Cardiology and Cardiovascular Medicine", subfieldID: 2705, domainName: "Health Sciences",
	},
	{
		name:      "oncology",
		primary:   []string{"cancer", "tumor", "tumour", "oncology", "carcinoma", "metastasis"},
		secondary: []string{"chemotherapy", "radiotherapy", "malignant", "biopsy", "lymphoma", "leukemia"},
		fieldName: "Medicine", subfield: "Oncology", subfieldID: 2730, domainName: "Health Sciences",
	},
	{
		name:      "neurology",
		primary:   []string{"neurological", "stroke", "epilepsy", "parkinson", "alzheimer", "multiple sclerosis"},
		secondary: []string{"seizure", "dementia", "migraine", "neuropathy", "cognitive decline"},
		fieldName: "Medicine", subfield: "Neurology", subfieldID: 2728, domainName: "Health Sciences",
	},
	{
		name:      "neuroscience",
		primary:   []string{"neuron", "neural circuit", "synaptic", "brain imaging", "neurotransmitter", "cortex"},
		secondary: []string{"hippocampus", "fmri", "electrophysiology", "plasticity", "dopamine"},
		fieldName: "Neuroscience", subfield: "Cognitive Neuroscience", subfieldID: 2805, domainName: "Life Sciences",
	},
	{
		name:      "psychiatry",
		primary:   []string{"psychiatric", "depression", "schizophrenia", "anxiety disorder", "bipolar"},
		secondary: []string{"antidepressant", "psychosis", "mental illness", "suicidal", "ptsd"},
		fieldName: "Medicine", subfield: "Psychiatry and Mental Health", subfieldID: 2738, domainName: "Health Sciences",
	},
	{
		name:      "pediatrics",
		primary:   []string{"pediatric", "paediatric", "infant", "neonatal", "childhood"},
		secondary: []string{"adolescent", "preterm", "vaccination schedule", "growth chart"},
		fieldName: "Medicine", subfield: "Pediatrics, Perinatology and Child Health", subfieldID: 2735, domainName: "Health Sciences",
	},
	{
		name:      "surgery",
		primary:   []string{"surgical", "surgery", "laparoscopic", "resection", "postoperative"},
		secondary: []string{"anastomosis", "incision", "perioperative", "transplantation", "suture"},
		fieldName: "Medicine", subfield: "Surgery", subfieldID: 2746, domainName: "Health Sciences",
	},
	{
		name:      "urology",
		primary:   []string{"urological", "prostate", "bladder", "kidney stone", "urinary"},
		secondary: []string{"renal", "urethra", "incontinence", "nephrectomy", "cystoscopy"},
		fieldName: "Medicine", subfield: "Urology", subfieldID: 2748, domainName: "Health Sciences",
	},
	{
		name:      "obstetrics_gynecology",
		primary:   []string{"pregnancy", "obstetric", "gynecolog", "fetal", "maternal"},
		secondary: []string{"cesarean", "preeclampsia", "uterine", "ovarian", "menopause"},
		fieldName: "Medicine", subfield: "Obstetrics and Gynecology", subfieldID: 2729, domainName: "Health Sciences",
	},
	{
		name:      "dermatology",
		primary:   []string{"dermatological", "psoriasis", "eczema", "melanoma", "skin lesion"},
		secondary: []string{"cutaneous", "dermatitis", "acne", "keratinocyte"},
		fieldName: "Medicine", subfield: "Dermatology", subfieldID: 2708, domainName: "Health Sciences",
	},
	{
		name:      "ophthalmology",
		primary:   []string{"ophthalmic", "retinal", "glaucoma", "cataract", "macular"},
		secondary: []string{"cornea", "intraocular", "visual acuity", "retinopathy"},
		fieldName: "Medicine", subfield: "Ophthalmology", subfieldID: 2731, domainName: "Health Sciences",
	},
	{
		name:      "infectious_diseases",
		primary:   []string{"infection", "antibiotic", "pathogen", "antimicrobial", "sepsis"},
		secondary: []string{"bacterial", "viral load", "resistance gene", "outbreak", "vaccine"},
		fieldName: "Medicine", subfield: "Infectious Diseases", subfieldID: 2725, domainName: "Health Sciences",
	},
	{
		name:      "endocrinology",
		primary:   []string{"diabetes", "insulin", "thyroid", "hormone", "endocrine"},
		secondary: []string{"glucose", "obesity", "metabolic syndrome", "glycemic", "cortisol"},
		fieldName: "Medicine", subfield: "Endocrinology, Diabetes and Metabolism", subfieldID: 2712, domainName: "Health Sciences",
	},
	{
		name:      "immunology",
		primary:   []string{"immune", "antibody", "cytokine", "t cell", "autoimmune"},
		secondary: []string{"inflammation", "macrophage", "antigen", "immunotherapy", "lymphocyte"},
		fieldName: "Immunology and Microbiology", subfield: "Immunology", subfieldID: 2403, domainName: "Life Sciences",
	},
	{
		name:      "public_health",
		primary:   []string{"epidemiolog", "public health", "health policy", "prevalence", "incidence"},
		secondary: []string{"cohort", "surveillance", "screening program", "health disparities", "mortality rate"},
		fieldName: "Medicine", subfield: "Public Health, Environmental and Occupational Health", subfieldID: 2739, domainName: "Health Sciences",
	},
	{
		name:      "radiology",
		primary:   []string{"radiological", "imaging", "magnetic resonance", "computed tomography", "ultrasound"},
		secondary: []string{"contrast agent", "radiograph", "pet scan", "mammography"},
		fieldName: "Medicine", subfield: "Radiology, Nuclear Medicine and Imaging", subfieldID: 2741, domainName: "Health Sciences",
	},
	{
		name:      "computer_science",
		primary:   []string{"algorithm", "machine learning", "neural network", "deep learning", "artificial intelligence"},
		secondary: []string{"classification", "dataset", "transformer", "optimization", "benchmark", "software"},
		fieldName: "Computer Science", subfield: "Artificial Intelligence", subfieldID: 1702, domainName: "Physical Sciences",
	},
	{
		name:      "computer_vision",
		primary:   []string{"computer vision", "image segmentation", "object detection", "image recognition"},
		secondary: []string{"convolutional", "feature extraction", "pixel", "image classification"},
		fieldName: "Computer Science", subfield: "Computer Vision and Pattern Recognition", subfieldID: 1707, domainName: "Physical Sciences",
	},
	{
		name:      "biomedical_engineering",
		primary:   []string{"biomaterial", "biosensor", "tissue engineering", "prosthesis", "medical device"},
		secondary: []string{"scaffold", "implant", "bioprinting", "wearable"},
		fieldName: "Engineering", subfield: "Biomedical Engineering", subfieldID: 2204, domainName: "Physical Sciences",
	},
	{
		name:      "molecular_biology",
		primary:   []string{"gene expression", "dna", "rna", "protein", "genome", "crispr"},
		secondary: []string{"transcription", "mutation", "sequencing", "plasmid", "enzyme", "epigenetic"},
		fieldName: "Biochemistry, Genetics and Molecular Biology", subfield: "Molecular Biology", subfieldID: 1312, domainName: "Life Sciences",
	},
	{
		name:      "microbiology",
		primary:   []string{"microbial", "bacteria", "microbiome", "fungal", "virology"},
		secondary: []string{"culture medium", "16s rrna", "biofilm", "gut flora"},
		fieldName: "Immunology and Microbiology", subfield: "Microbiology", subfieldID: 2404, domainName: "Life Sciences",
	},
	{
		name:      "pharmacology",
		primary:   []string{"pharmacokinetic", "drug delivery", "pharmacological", "dose response", "therapeutic"},
		secondary: []string{"bioavailability", "receptor binding", "toxicity", "formulation"},
		fieldName: "Pharmacology, Toxicology and Pharmaceutics", subfield: "Pharmacology", subfieldID: 3004, domainName: "Life Sciences",
	},
	{
		name:      "environmental_science",
		primary:   []string{"climate change", "ecosystem", "pollution", "biodiversity", "sustainability"},
		secondary: []string{"carbon emission", "greenhouse gas", "conservation", "habitat", "renewable energy"},
		fieldName: "Environmental Science", subfield: "Global and Planetary Change", subfieldID: 2306, domainName: "Physical Sciences",
	},
	{
		name:      "physics",
		primary:   []string{"quantum", "photon", "particle physics", "superconduct", "relativity"},
		secondary: []string{"laser", "magnetic field", "spectroscopy", "plasma", "boson"},
		fieldName: "Physics and Astronomy", subfield: "Atomic and Molecular Physics, and Optics", subfieldID: 3107, domainName: "Physical Sciences",
	},
	{
		name:      "chemistry",
		primary:   []string{"synthesis", "catalyst", "molecular structure", "organic chemistry", "electrochemical"},
		secondary: []string{"polymer", "reaction mechanism", "chromatography", "ligand", "solvent"},
		fieldName: "Chemistry", subfield: "Physical and Theoretical Chemistry", subfieldID: 1606, domainName: "Physical Sciences",
	},
	{
		name:      "materials_science",
		primary:   []string{"nanoparticle", "thin film", "nanomaterial", "graphene", "composite material"},
		secondary: []string{"crystalline", "coating", "alloy", "tensile strength"},
		fieldName: "Materials Science", subfield: "Materials Chemistry", subfieldID: 2505, domainName: "Physical Sciences",
	},
	{
		name:      "mathematics",
		primary:   []string{"theorem", "mathematical model", "differential equation", "stochastic", "topology"},
		secondary: []string{"numerical method", "convergence", "matrix", "probability distribution"},
		fieldName: "Mathematics", subfield: "Applied Mathematics", subfieldID: 2604, domainName: "Physical Sciences",
	},
	{
		name:      "economics",
		primary:   []string{"economic", "market", "monetary", "fiscal", "macroeconomic"},
		secondary: []string{"inflation", "gdp", "trade", "investment", "labor market"},
		fieldName: "Economics, Econometrics and Finance", subfield: "Economics and Econometrics", subfieldID: 2002, domainName: "Social Sciences",
	},
	{
		name:      "psychology",
		primary:   []string{"psychological", "behavioral", "cognition", "emotion", "personality"},
		secondary: []string{"questionnaire", "self-report", "wellbeing", "motivation", "perception"},
		fieldName: "Psychology", subfield: "Experimental and Cognitive Psychology", subfieldID: 3205, domainName: "Social Sciences",
	},
	{
		name:      "education",
		primary:   []string{"pedagog", "curriculum", "learning outcomes", "classroom", "educational"},
		secondary: []string{"teacher", "student achievement", "e-learning", "literacy"},
		fieldName: "Social Sciences", subfield: "Education", subfieldID: 3304, domainName: "Social Sciences",
	},
	{
		name:      "sociology",
		primary:   []string{"sociological", "social inequality", "ethnograph", "social capital", "urbanization"},
		secondary: []string{"gender", "migration", "community", "social network analysis"},
		fieldName: "Social Sciences", subfield: "Sociology and Political Science", subfieldID: 3312, domainName: "Social Sciences",
	},
}

// KeywordDisciplineDetector scores manuscripts against the curated
// discipline table. Pure and deterministic; no external calls.
type KeywordDisciplineDetector struct {
	minConfidence float64
}

// NewKeywordDisciplineDetector creates a detector with the given minimum
// confidence threshold. A non-positive threshold falls back to the default.
func NewKeywordDisciplineDetector(minConfidence float64) *KeywordDisciplineDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultKeywordDetectorMinConfidence
	}
	return &KeywordDisciplineDetector{minConfidence: minConfidence}
}

// Detect returns detected disciplines sorted descending by confidence.
// Surviving scores are max-normalized so the best match is exactly 1.0.
// Zero matches yield an empty list, a valid and common outcome.
func (d *KeywordDisciplineDetector) Detect(title, abstract string, keywords []string) []domain.DetectedDiscipline {
	text := strings.ToLower(strings.Join(append([]string{title, abstract}, keywords...), " "))
	wordSet := make(map[string]bool)
	for _, w := range tokenize(text) {
		wordSet[w] = true
	}

	var results []domain.DetectedDiscipline
	for _, def := range disciplineTable {
		score, evidence := scoreDiscipline(def, text, wordSet)
		if score < d.minConfidence {
			continue
		}
		results = append(results, domain.DetectedDiscipline{
			Name:         def.name,
			Confidence:   score,
			Evidence:     evidence,
			FieldName:    def.fieldName,
			SubfieldName: def.subfield,
			SubfieldID:   def.subfieldID,
			DomainName:   def.domainName,
			Source:       domain.DisciplineSourceKeyword,
		})
	}

	if len(results) == 0 {
		return nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	// Max-normalize so the top discipline is exactly 1.0.
	top := results[0].Confidence
	if top > 0 {
		for i := range results {
			results[i].Confidence = results[i].Confidence / top
		}
	}

	return results
}

// scoreDiscipline sums matched keyword weights, capped at 1.0. Single-word
// keywords require a whole-word match; multi-word phrases (and stem-like
// entries without trailing word boundaries) match as substrings.
func scoreDiscipline(def disciplineDef, text string, wordSet map[string]bool) (float64, []string) {
	var score float64
	var evidence []string

	match := func(kw string) bool {
		if strings.ContainsAny(kw, " -") {
			return strings.Contains(text, kw)
		}
		if wordSet[kw] {
			return true
		}
		// Entries like "epidemiolog" act as stems.
		if !stopwords[kw] && len(kw) >= 8 && strings.Contains(text, kw) {
			return true
		}
		return false
	}

	for _, kw := range def.primary {
		if match(kw) {
			score += primaryKeywordWeight
			evidence = append(evidence, kw)
		}
	}
	for _, kw := range def.secondary {
		if match(kw) {
			score += secondaryKeywordWeight
			evidence = append(evidence, kw)
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, evidence
}
