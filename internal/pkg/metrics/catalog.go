package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yigit/sqlguide/internal/curriculum"
)

// CatalogCollector reports the size of the loaded curriculum.
type CatalogCollector struct {
	catalog *curriculum.Catalog
	desc    *prometheus.Desc
}

// NewCatalogCollector describes cat by part, difficulty and grade mode.
func NewCatalogCollector(cat *curriculum.Catalog) *CatalogCollector {
	return &CatalogCollector{
		catalog: cat,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "catalog", "challenges"),
			"Challenges in the loaded curriculum.",
			[]string{"part", "difficulty", "mode"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *CatalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *CatalogCollector) Collect(ch chan<- prometheus.Metric) {
	type key struct {
		part       int
		difficulty curriculum.Difficulty
		mode       curriculum.GradeMode
	}
	counts := make(map[key]int)
	for _, challenge := range c.catalog.Challenges(curriculum.Filter{}) {
		counts[key{challenge.Part, challenge.Difficulty, challenge.Mode}]++
	}
	for k, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n),
			strconv.Itoa(k.part), string(k.difficulty), string(k.mode))
	}
}
