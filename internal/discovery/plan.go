// Package discovery finds new restaurant candidates by crossing
// neighborhoods with food keywords on Kakao, reading Naver blog
// reviews for each hit, and staging LLM-scored finds for human review.
package discovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Plan is a discovery run's search grid: every neighborhood is crossed
// with every keyword.
type Plan struct {
	Neighborhoods []string `yaml:"neighborhoods"`
	Keywords      []string `yaml:"keywords"`
	// MaxPerSearch caps how many places one neighborhood-keyword
	// search may yield.
	MaxPerSearch int `yaml:"max_per_search"`
	// MaxPosts caps how many blog posts are read per place.
	MaxPosts int `yaml:"max_posts"`
}

// LoadPlan reads a discovery plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read plan %s", path)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, eris.Wrap(err, "discovery: parse plan")
	}

	if len(plan.Neighborhoods) == 0 {
		return nil, eris.New("discovery: plan has no neighborhoods")
	}
	if len(plan.Keywords) == 0 {
		return nil, eris.New("discovery: plan has no keywords")
	}
	if plan.MaxPerSearch <= 0 {
		plan.MaxPerSearch = 10
	}
	if plan.MaxPosts <= 0 {
		plan.MaxPosts = 3
	}
	return &plan, nil
}

// Searches returns the number of neighborhood-keyword combinations.
func (p *Plan) Searches() int {
	return len(p.Neighborhoods) * len(p.Keywords)
}
