package parser

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YNetwork is the on-disk network/scenario schema.
type YNetwork struct {
	ID        string      `yaml:"id"`
	Junctions []YJunction `yaml:"junctions"`
	Pipes     []YPipe     `yaml:"pipes"`
	Buildings []YBuilding `yaml:"buildings"`
}

type YJunction struct {
	ID   string  `yaml:"id"`
	Role string  `yaml:"role,omitempty"` // plant | building | branch
	X    float64 `yaml:"x,omitempty"`
	Y    float64 `yaml:"y,omitempty"`
}

type YPipe struct {
	ID          string  `yaml:"id"`
	From        string  `yaml:"from"`
	To          string  `yaml:"to"`
	LengthM     float64 `yaml:"length_m"`
	RoughnessMM float64 `yaml:"roughness_mm,omitempty"`
}

type YBuilding struct {
	ID       string    `yaml:"id"`
	Junction string    `yaml:"junction"`
	DemandW  []float64 `yaml:"demand_w,omitempty"`
	// Shorthand for flat profiles: a constant load repeated for hours
	// samples instead of a full series.
	ConstantLoadW float64 `yaml:"constant_load_w,omitempty"`
	Hours         int     `yaml:"hours,omitempty"`
}

func ParseYAML(path string) (*YNetwork, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	return ParseYAMLBytes(b)
}

func ParseYAMLBytes(b []byte) (*YNetwork, error) {
	var n YNetwork
	if err := yaml.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("parse network yaml: %w", err)
	}
	return &n, nil
}
