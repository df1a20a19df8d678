// Package catalog holds the fixed list of SEO task templates every new
// project is seeded with.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/seotrack/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	loadOnce  sync.Once
	templates []models.TaskTemplate
)

func load() []models.TaskTemplate {
	loadOnce.Do(func() {
		var out []models.TaskTemplate
		if err := yaml.Unmarshal(catalogYAML, &out); err != nil {
			panic(fmt.Sprintf("catalog: embedded catalog.yaml is malformed: %v", err))
		}
		templates = out
	})
	return templates
}

// All returns every template in catalog order. The result is a fresh copy.
func All() []models.TaskTemplate {
	src := load()
	out := make([]models.TaskTemplate, len(src))
	for i, t := range src {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of templates
func Len() int {
	return len(load())
}

// ByCategory returns the templates of one category in catalog order
func ByCategory(c models.Category) []models.TaskTemplate {
	var out []models.TaskTemplate
	for _, t := range load() {
		if t.Category == c {
			out = append(out, t.Clone())
		}
	}
	return out
}
