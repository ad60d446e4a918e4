package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultArtifactPath is where the bundle is looked up when nothing else is configured.
const DefaultArtifactPath = "churn_model.json"

var (
	// ErrArtifactMissing reports a bundle that cannot be found, read or used.
	// Serving must stop accepting predictions; there is no fallback model.
	ErrArtifactMissing = errors.New("model artifact missing")
	ErrInvalidBundle   = errors.New("invalid model bundle")
)

// Bundle is the immutable triple produced at training time.
type Bundle struct {
	Classifier Classifier
	Scaler     Scaler
	// Features is the post-encoding column order the classifier expects.
	Features []string
}

type bundleFile struct {
	Model    json.RawMessage `json:"model"`
	Scaler   json.RawMessage `json:"scaler"`
	Features []string        `json:"features"`
}

// LoadBundle reads and decodes the bundle at path. Every failure wraps
// ErrArtifactMissing.
func LoadBundle(path string) (*Bundle, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactMissing, path, err)
	}
	bundle, err := DecodeBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactMissing, path, err)
	}
	return bundle, nil
}

// DecodeBundle decodes a JSON bundle and checks that its parts agree.
func DecodeBundle(payload []byte) (*Bundle, error) {
	var file bundleFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	if len(file.Features) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", ErrInvalidBundle)
	}
	seen := make(map[string]struct{}, len(file.Features))
	for _, name := range file.Features {
		if name == "" {
			return nil, fmt.Errorf("%w: empty feature column name", ErrInvalidBundle)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature column %q", ErrInvalidBundle, name)
		}
		seen[name] = struct{}{}
	}
	if len(file.Model) == 0 {
		return nil, fmt.Errorf("%w: missing model", ErrInvalidBundle)
	}
	if len(file.Scaler) == 0 {
		return nil, fmt.Errorf("%w: missing scaler", ErrInvalidBundle)
	}

	classifier, err := decodeClassifier(file.Model, len(file.Features))
	if err != nil {
		return nil, fmt.Errorf("%w: model: %w", ErrInvalidBundle, err)
	}
	scaler, err := decodeScaler(file.Scaler)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler: %w", ErrInvalidBundle, err)
	}
	return &Bundle{
		Classifier: classifier,
		Scaler:     scaler,
		Features:   file.Features,
	}, nil
}
