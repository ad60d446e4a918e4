package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DecisionTree is a fitted binary tree stored as a flat node array. Node 0 is
// the root and every child index is greater than its parent's.
type DecisionTree struct {
	nodes     []TreeNode
	width     int
	threshold float64
}

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	Probability float64 `json:"probability"`
	IsLeaf      bool    `json:"is_leaf"`
}

// NewDecisionTree validates nodes against the input width.
func NewDecisionTree(nodes []TreeNode, width int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if width <= 0 {
		return nil, errors.New("tree width must be positive")
	}
	for idx, node := range nodes {
		if node.IsLeaf {
			if node.Probability < 0 || node.Probability > 1 || math.IsNaN(node.Probability) {
				return nil, fmt.Errorf("node %d: leaf probability %v out of range", idx, node.Probability)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= width {
			return nil, fmt.Errorf("node %d: feature index %d out of range", idx, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= idx || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: invalid child %d", idx, child)
			}
		}
	}
	return &DecisionTree{nodes: nodes, width: width, threshold: DefaultThreshold}, nil
}

func (dt *DecisionTree) Width() int {
	return dt.width
}

func (dt *DecisionTree) PredictProbability(vector []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("model not fitted")
	}
	if err := checkVector(vector, dt.width); err != nil {
		return 0, err
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Probability, nil
		}
		if vector[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) Predict(vector []float64) (int, error) {
	p, err := dt.PredictProbability(vector)
	if err != nil {
		return 0, err
	}
	return labelFor(p, dt.threshold), nil
}

func decodeDecisionTree(raw json.RawMessage, width int) (Classifier, error) {
	var payload struct {
		Nodes     []TreeNode `json:"nodes"`
		Threshold float64    `json:"threshold"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	tree, err := NewDecisionTree(payload.Nodes, width)
	if err != nil {
		return nil, err
	}
	if payload.Threshold < 0 || payload.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v out of range", payload.Threshold)
	}
	if payload.Threshold > 0 {
		tree.threshold = payload.Threshold
	}
	return tree, nil
}
