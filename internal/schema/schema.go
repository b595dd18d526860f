// Package schema holds the column names, label vocabularies and artifact
// file names shared by every pipeline stage.
package schema

import (
	"sort"
	"strings"
)

// Canonical column names of the insurance dataset.
const (
	ColAge      = "age"
	ColSex      = "sex"
	ColBMI      = "bmi"
	ColChildren = "children"
	ColSmoker   = "smoker"
	ColRegion   = "region"
	ColCharges  = "charges"
	ColClaim    = "insuranceclaim"
)

// Artifact names. Paths are resolved against the configured directories.
const (
	TableCleaned = "cleaned_data"

	FileClaimDistribution = "kpis_claim_distribution.csv"
	FileClaimRate         = "kpis_claim_rate.csv"
	FileAgeByOutcome      = "kpis_age_by_outcome.csv"
	FileAnomalies         = "anomalies_high_charges.csv"

	FileDatabase = "insurance.db"
	FileModel    = "insurance_model.gob"
)

// KPI column names consumed by the chart renderer and any downstream reader.
const (
	KPICount      = "count"
	KPIClaimRate  = "claim_rate_percent"
	KPIAverageAge = "average_age"

	ClaimYes = "yes"
	ClaimNo  = "no"
)

// DefaultCostThreshold flags records whose charges exceed it.
const DefaultCostThreshold = 50000.0

// FeatureColumns is the feature order the classifier is trained on.
var FeatureColumns = []string{ColAge, ColSex, ColBMI, ColChildren, ColSmoker, ColRegion, ColCharges}

// Vocabulary is a closed code→label mapping for one categorical column.
// Aliases are extra raw spellings accepted when encoding.
type Vocabulary struct {
	Column  string
	Labels  map[int]string
	Aliases map[string]int
}

// Label returns the label for code, or false when code is outside the vocabulary.
func (v Vocabulary) Label(code int) (string, bool) {
	s, ok := v.Labels[code]
	return s, ok
}

// Code resolves a label or alias (case-insensitive) to its code.
func (v Vocabulary) Code(label string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	for code, l := range v.Labels {
		if l == key {
			return code, true
		}
	}
	code, ok := v.Aliases[key]
	return code, ok
}

// Codes returns the vocabulary codes in ascending order.
func (v Vocabulary) Codes() []int {
	out := make([]int, 0, len(v.Labels))
	for c := range v.Labels {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

var (
	Sex = Vocabulary{
		Column:  ColSex,
		Labels:  map[int]string{0: "female", 1: "male"},
		Aliases: map[string]int{"f": 0, "m": 1},
	}
	Smoker = Vocabulary{
		Column:  ColSmoker,
		Labels:  map[int]string{0: "non-smoker", 1: "smoker"},
		Aliases: map[string]int{"no": 0, "yes": 1},
	}
	Region = Vocabulary{
		Column: ColRegion,
		Labels: map[int]string{0: "northeast", 1: "northwest", 2: "southeast", 3: "southwest"},
	}
	Claim = Vocabulary{
		Column: ColClaim,
		Labels: map[int]string{0: ClaimNo, 1: ClaimYes},
	}
)

// Vocabularies returns the label vocabularies in normalization order, with the
// claim vocabulary bound to target (the configured target column).
func Vocabularies(target string) []Vocabulary {
	claim := Claim
	if target != "" {
		claim.Column = target
	}
	return []Vocabulary{Sex, Smoker, Region, claim}
}
