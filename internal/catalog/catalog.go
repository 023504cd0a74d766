// Package catalog holds the built-in revenue categories and goal templates.
package catalog

import (
	_ "embed"
	"fmt"
	"time"

	"revtrack/internal/core"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Category struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Color       string `yaml:"color" json:"color"`
	Icon        string `yaml:"icon" json:"icon"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type GoalTemplate struct {
	ID           string           `yaml:"id" json:"id"`
	Name         string           `yaml:"name" json:"name"`
	Description  string           `yaml:"description" json:"description"`
	Type         core.Granularity `yaml:"type" json:"type"`
	TargetAmount decimal.Decimal  `yaml:"targetAmount" json:"targetAmount"`
	GoalType     core.GoalType    `yaml:"goalType" json:"goalType"`
	Icon         string           `yaml:"icon" json:"icon"`
}

type Catalog struct {
	Categories    []Category     `yaml:"categories" json:"categories"`
	GoalTemplates []GoalTemplate `yaml:"goalTemplates" json:"goalTemplates"`
}

// Default parses the embedded catalog. It panics on a malformed file since
// the file is compiled in.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.ID == "" || seen[cat.ID] {
			return fmt.Errorf("category %q: missing or duplicate id", cat.ID)
		}
		seen[cat.ID] = true
	}
	if !seen[core.CallsCategory] {
		return fmt.Errorf("catalog lacks the %q category", core.CallsCategory)
	}

	seen = map[string]bool{}
	for _, t := range c.GoalTemplates {
		if t.ID == "" || seen[t.ID] {
			return fmt.Errorf("goal template %q: missing or duplicate id", t.ID)
		}
		if !t.Type.Valid() || !t.GoalType.Valid() || !t.TargetAmount.IsPositive() {
			return fmt.Errorf("goal template %q: invalid type, goal type or target", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

func (c *Catalog) Template(id string) (GoalTemplate, bool) {
	for _, t := range c.GoalTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return GoalTemplate{}, false
}

// NewGoal instantiates the template for the period containing now.
func (t GoalTemplate) NewGoal(id string, now time.Time) core.Goal {
	return core.Goal{
		ID:           id,
		Type:         t.Type,
		Period:       core.CurrentBucket(now, t.Type),
		TargetAmount: t.TargetAmount,
		GoalType:     t.GoalType,
		Description:  t.Description,
		CreatedAt:    now,
	}
}
