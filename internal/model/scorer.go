package model

import "fmt"

// Classifier scores a binary:logistic ensemble.
type Classifier struct {
	*Ensemble
}

// NewClassifier wraps e, which must use the binary:logistic objective.
func NewClassifier(e *Ensemble) (*Classifier, error) {
	if e.Objective != ObjectiveBinaryLogistic {
		return nil, fmt.Errorf("%w: classifier needs %s, got %s", ErrUnsupportedObjective, ObjectiveBinaryLogistic, e.Objective)
	}
	return &Classifier{e}, nil
}

// LoadClassifier reads a classifier from a JSON model file.
func LoadClassifier(path string) (*Classifier, error) {
	e, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(e)
}

// Probability returns P(class 1 | x).
func (c *Classifier) Probability(x []float64) float64 {
	return sigmoid(c.Margin(x))
}

// Predict returns 1 when the class-1 probability exceeds 0.5, else 0.
func (c *Classifier) Predict(x []float64) int {
	if c.Probability(x) > 0.5 {
		return 1
	}
	return 0
}

// Regressor scores a squared-error regression ensemble.
type Regressor struct {
	*Ensemble
}

// NewRegressor wraps e, which must use a regression objective.
func NewRegressor(e *Ensemble) (*Regressor, error) {
	switch e.Objective {
	case ObjectiveSquaredError, ObjectiveLinear:
		return &Regressor{e}, nil
	}
	return nil, fmt.Errorf("%w: regressor needs %s, got %s", ErrUnsupportedObjective, ObjectiveSquaredError, e.Objective)
}

// LoadRegressor reads a regressor from a JSON model file.
func LoadRegressor(path string) (*Regressor, error) {
	e, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegressor(e)
}

// Predict returns the regression output for x.
func (r *Regressor) Predict(x []float64) float64 {
	return r.Margin(x)
}
