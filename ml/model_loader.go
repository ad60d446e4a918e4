package ml

import (
	"encoding/json"
	"fmt"
)

// ClassifierDecoder builds a classifier from its JSON parameters. width is the
// number of feature columns carried by the bundle.
type ClassifierDecoder func(raw json.RawMessage, width int) (Classifier, error)

// ScalerDecoder builds a scaler from its JSON parameters.
type ScalerDecoder func(raw json.RawMessage) (Scaler, error)

var classifierDecoders = map[string]ClassifierDecoder{
	"logistic_regression": decodeLogisticRegression,
	"decision_tree":       decodeDecisionTree,
}

var scalerDecoders = map[string]ScalerDecoder{
	"standard": decodeStandardScaler,
	"minmax":   decodeMinMaxScaler,
}

type typeHeader struct {
	Type string `json:"type"`
}

func decodeClassifier(raw json.RawMessage, width int) (Classifier, error) {
	var header typeHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, err
	}
	decode, ok := classifierDecoders[header.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported model type %q", header.Type)
	}
	return decode(raw, width)
}

func decodeScaler(raw json.RawMessage) (Scaler, error) {
	var header typeHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, err
	}
	decode, ok := scalerDecoders[header.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported scaler type %q", header.Type)
	}
	return decode(raw)
}
