package initwfn

import G "gorgonia.org/gorgonia"

// ConstantConfig implements a configuration of constant weight
// initialization, where every weight is set to the same value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initializer
func NewConstant(value float64) (*InitWFn, error) {
	config := ConstantConfig{
		Value: value,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (c ConstantConfig) Create() G.InitWFn {
	return G.ValuesOf(c.Value)
}
