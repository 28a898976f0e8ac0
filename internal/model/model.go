// Package model scores pre-trained gradient-boosted tree ensembles stored in
// the XGBoost JSON model format.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Supported objectives
const (
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveSquaredError   = "reg:squarederror"
	ObjectiveLinear         = "reg:linear"
)

var (
	// ErrUnsupportedObjective is returned for objectives this package cannot score.
	ErrUnsupportedObjective = errors.New("unsupported objective")
	// ErrMalformedModel is returned when the tree arrays are inconsistent.
	ErrMalformedModel = errors.New("malformed model")
	// ErrFeatureCount is returned when a model expects a different vector length.
	ErrFeatureCount = errors.New("feature count mismatch")
)

// Ensemble is a sum of regression trees plus a base score.
type Ensemble struct {
	Objective  string
	BaseScore  float64
	NumFeature int
	trees      []tree
}

// Thresholds, leaf values and sums are float32, as XGBoost scores them.
type tree struct {
	splitIndices    []int
	splitConditions []float32
	leftChildren    []int
	rightChildren   []int
	defaultLeft     []bool
}

// wire layout of an XGBoost JSON model
type modelFile struct {
	Learner struct {
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		GradientBooster struct {
			Model struct {
				Trees []treeFile `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

type treeFile struct {
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float32 `json:"split_conditions"`
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	DefaultLeft     flagList  `json:"default_left"`
}

// flagList accepts default_left written either as booleans or as 0/1.
type flagList []bool

func (f *flagList) UnmarshalJSON(data []byte) error {
	var bools []bool
	if err := json.Unmarshal(data, &bools); err == nil {
		*f = bools
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("default_left: %w", err)
	}
	out := make([]bool, len(ints))
	for i, v := range ints {
		out[i] = v != 0
	}
	*f = out
	return nil
}

// Load reads an ensemble from a JSON model file.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	e, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return e, nil
}

// Parse decodes an ensemble from r.
func Parse(r io.Reader) (*Ensemble, error) {
	var mf modelFile
	if err := json.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}

	l := mf.Learner
	switch l.Objective.Name {
	case ObjectiveBinaryLogistic, ObjectiveSquaredError, ObjectiveLinear:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedObjective, l.Objective.Name)
	}

	base, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}
	numFeature := 0
	if s := l.LearnerModelParam.NumFeature; s != "" {
		numFeature, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: num_feature %q", ErrMalformedModel, s)
		}
	}

	e := &Ensemble{
		Objective:  l.Objective.Name,
		BaseScore:  base,
		NumFeature: numFeature,
	}
	for i, tf := range l.GradientBooster.Model.Trees {
		t, err := tf.build(numFeature)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		e.trees = append(e.trees, t)
	}
	return e, nil
}

// parseBaseScore accepts "0.5", "5E-1" and the bracketed "[5E-1]" form.
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "[]"))
	if s == "" {
		return 0.5, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: base_score %q", ErrMalformedModel, s)
	}
	return v, nil
}

func (tf treeFile) build(numFeature int) (tree, error) {
	n := len(tf.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("%w: empty tree", ErrMalformedModel)
	}
	if len(tf.RightChildren) != n || len(tf.SplitIndices) != n || len(tf.SplitConditions) != n {
		return tree{}, fmt.Errorf("%w: node arrays differ in length", ErrMalformedModel)
	}
	defaultLeft := []bool(tf.DefaultLeft)
	if len(defaultLeft) == 0 {
		defaultLeft = make([]bool, n)
	}
	if len(defaultLeft) != n {
		return tree{}, fmt.Errorf("%w: default_left has %d entries, want %d", ErrMalformedModel, len(defaultLeft), n)
	}

	// every node reachable from the root must be visited exactly once
	visited := make([]bool, n)
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return tree{}, fmt.Errorf("%w: node %d is reachable twice", ErrMalformedModel, i)
		}
		visited[i] = true

		l, r := tf.LeftChildren[i], tf.RightChildren[i]
		if l == -1 {
			continue
		}
		if l < 0 || l >= n || r < 0 || r >= n {
			return tree{}, fmt.Errorf("%w: node %d has children %d, %d", ErrMalformedModel, i, l, r)
		}
		if f := tf.SplitIndices[i]; f < 0 || (numFeature > 0 && f >= numFeature) {
			return tree{}, fmt.Errorf("%w: node %d splits on feature %d", ErrMalformedModel, i, f)
		}
		stack = append(stack, l, r)
	}

	return tree{
		splitIndices:    tf.SplitIndices,
		splitConditions: tf.SplitConditions,
		leftChildren:    tf.LeftChildren,
		rightChildren:   tf.RightChildren,
		defaultLeft:     defaultLeft,
	}, nil
}

// leaf walks the tree for x and returns the leaf value. Features are
// narrowed to float32 before comparison. Missing (NaN or out of range)
// features follow the node's default direction.
func (t tree) leaf(x []float64) float32 {
	node := 0
	for t.leftChildren[node] != -1 {
		f := t.splitIndices[node]
		var goLeft bool
		if f >= len(x) || math.IsNaN(x[f]) {
			goLeft = t.defaultLeft[node]
		} else {
			goLeft = float32(x[f]) < t.splitConditions[node]
		}
		if goLeft {
			node = t.leftChildren[node]
		} else {
			node = t.rightChildren[node]
		}
	}
	return t.splitConditions[node]
}

// Trees returns the number of trees in the ensemble.
func (e *Ensemble) Trees() int {
	return len(e.trees)
}

// Margin returns the untransformed score of x: the sum of leaf values plus
// the base score in margin space, accumulated in float32.
func (e *Ensemble) Margin(x []float64) float64 {
	base := e.BaseScore
	if e.Objective == ObjectiveBinaryLogistic {
		base = logit(e.BaseScore)
	}
	margin := float32(base)
	for _, t := range e.trees {
		margin += t.leaf(x)
	}
	return float64(margin)
}

// CheckFeatures returns ErrFeatureCount when the model declares a feature
// count different from n.
func (e *Ensemble) CheckFeatures(n int) error {
	if e.NumFeature != 0 && e.NumFeature != n {
		return fmt.Errorf("%w: model expects %d features, pipeline produces %d", ErrFeatureCount, e.NumFeature, n)
	}
	return nil
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
