package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/KaramelBytes/claimvision-cli/internal/utils"
)

// ArtifactError reports a model file that cannot be written or read.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string { return fmt.Sprintf("model artifact %s: %v", e.Path, e.Err) }

func (e *ArtifactError) Unwrap() error { return e.Err }

// Artifact is the persisted trained classifier.
type Artifact struct {
	// Features lists input columns in the order the forest expects.
	Features  []string
	Target    string
	Forest    *Forest
	Metrics   Metrics
	TrainedAt time.Time
	RunID     string
}

// Save gob-encodes a and writes it atomically to path.
func (a *Artifact) Save(path string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return &ArtifactError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	return nil
}

// Load reads an artifact written by Save.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	var a Artifact
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&a); err != nil {
		return nil, &ArtifactError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, &ArtifactError{Path: path, Err: fmt.Errorf("artifact has no trained forest")}
	}
	return &a, nil
}

// Vector orders a feature map by a.Features. Missing features are an error.
func (a *Artifact) Vector(values map[string]float64) ([]float64, error) {
	out := make([]float64, len(a.Features))
	for i, f := range a.Features {
		v, ok := values[f]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", f)
		}
		out[i] = v
	}
	return out, nil
}
