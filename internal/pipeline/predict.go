package pipeline

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/claimvision-cli/internal/model"
	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// Prediction is the classifier's answer for one record.
type Prediction struct {
	Claim       bool
	Probability float64
}

// Label is the outcome as shown to users.
func (p Prediction) Label() string {
	if p.Claim {
		return "Claim"
	}
	return "No Claim"
}

// Predict scores one record given as column → raw value. Categorical values
// may be labels, aliases or codes.
func Predict(a *model.Artifact, record map[string]string) (Prediction, error) {
	vocab := map[string]schema.Vocabulary{}
	for _, v := range schema.Vocabularies(a.Target) {
		vocab[v.Column] = v
	}
	values := make(map[string]float64, len(a.Features))
	for _, f := range a.Features {
		raw, ok := record[f]
		if !ok || table.IsMissing(raw) {
			return Prediction{}, fmt.Errorf("missing value for %s", f)
		}
		raw = strings.TrimSpace(raw)
		if n, ok := table.ParseNumber(raw); ok {
			if v, isCat := vocab[f]; isCat {
				if _, known := v.Label(int(n)); !known || n != float64(int(n)) {
					return Prediction{}, fmt.Errorf("%s: code %s is outside the label vocabulary", f, raw)
				}
			}
			values[f] = n
			continue
		}
		v, isCat := vocab[f]
		if !isCat {
			return Prediction{}, fmt.Errorf("%s: %q is not a number", f, raw)
		}
		code, ok := v.Code(raw)
		if !ok {
			return Prediction{}, fmt.Errorf("%s: %q is outside the label vocabulary", f, raw)
		}
		values[f] = float64(code)
	}
	x, err := a.Vector(values)
	if err != nil {
		return Prediction{}, err
	}
	yes, _ := schema.Claim.Code(schema.ClaimYes)
	prob := a.Forest.ClassProba([][]float64{x}, yes)[0]
	pred := a.Forest.Predict([][]float64{x})[0]
	return Prediction{Claim: pred == yes, Probability: prob}, nil
}
