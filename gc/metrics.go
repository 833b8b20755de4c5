package gc

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector adapts a Collector's Stats and most recent
// History entry into a prometheus.Collector, computing derived
// quantities (efficiency, collection rate) on every scrape rather
// than maintaining separate gauges that could drift from the
// counters they're derived from.
type PrometheusCollector struct {
	gc *Collector

	nMutation       *prometheus.Desc
	nLoggedMutation *prometheus.Desc
	nXGenMutation   *prometheus.Desc
	nXCkpMutation   *prometheus.Desc
	totalPromoted   *prometheus.Desc
	totalAllocated  *prometheus.Desc
	nGC             *prometheus.Desc
	lastEfficiency  *prometheus.Desc
	lastRateBps     *prometheus.Desc
}

// NewPrometheusCollector wraps gc for registration with a
// prometheus.Registry.
func NewPrometheusCollector(gc *Collector) *PrometheusCollector {
	return &PrometheusCollector{
		gc: gc,
		nMutation: prometheus.NewDesc(
			"xogc_mutations_total", "Total member assignments observed by the write barrier.", nil, nil),
		nLoggedMutation: prometheus.NewDesc(
			"xogc_logged_mutations_total", "Mutations that required a mutation-log entry.", nil, nil),
		nXGenMutation: prometheus.NewDesc(
			"xogc_cross_generation_mutations_total", "Logged mutations crossing tenured-to-nursery.", nil, nil),
		nXCkpMutation: prometheus.NewDesc(
			"xogc_cross_checkpoint_mutations_total", "Logged mutations crossing the nursery G1/G0 checkpoint.", nil, nil),
		totalPromoted: prometheus.NewDesc(
			"xogc_promoted_bytes_total", "Cumulative bytes promoted from nursery to tenured.", nil, nil),
		totalAllocated: prometheus.NewDesc(
			"xogc_allocated_bytes_total", "Cumulative bytes handed out by Alloc.", nil, nil),
		nGC: prometheus.NewDesc(
			"xogc_collections_total", "Completed collections, by generation reached.", []string{"generation"}, nil),
		lastEfficiency: prometheus.NewDesc(
			"xogc_last_cycle_efficiency", "garbage / (garbage + effort) for the most recent cycle.", nil, nil),
		lastRateBps: prometheus.NewDesc(
			"xogc_last_cycle_collection_rate_bytes_per_second", "Reclaimed bytes per second for the most recent cycle.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.nMutation
	ch <- p.nLoggedMutation
	ch <- p.nXGenMutation
	ch <- p.nXCkpMutation
	ch <- p.totalPromoted
	ch <- p.totalAllocated
	ch <- p.nGC
	ch <- p.lastEfficiency
	ch <- p.lastRateBps
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.gc.Stats()

	ch <- prometheus.MustNewConstMetric(p.nMutation, prometheus.CounterValue, float64(s.NMutation()))
	ch <- prometheus.MustNewConstMetric(p.nLoggedMutation, prometheus.CounterValue, float64(s.NLoggedMutation()))
	ch <- prometheus.MustNewConstMetric(p.nXGenMutation, prometheus.CounterValue, float64(s.NXGenMutation()))
	ch <- prometheus.MustNewConstMetric(p.nXCkpMutation, prometheus.CounterValue, float64(s.NXCkpMutation()))
	ch <- prometheus.MustNewConstMetric(p.totalPromoted, prometheus.CounterValue, float64(s.TotalPromoted()))
	ch <- prometheus.MustNewConstMetric(p.totalAllocated, prometheus.CounterValue, float64(s.TotalAllocated()))
	ch <- prometheus.MustNewConstMetric(p.nGC, prometheus.CounterValue, float64(s.NGC(Nursery)), "nursery")
	ch <- prometheus.MustNewConstMetric(p.nGC, prometheus.CounterValue, float64(s.NGC(Tenured)), "tenured")

	if last, ok := lastHistoryItem(p.gc); ok {
		ch <- prometheus.MustNewConstMetric(p.lastEfficiency, prometheus.GaugeValue, last.Efficiency())
		ch <- prometheus.MustNewConstMetric(p.lastRateBps, prometheus.GaugeValue, last.CollectionRate()*1e9)
	}
}

func lastHistoryItem(c *Collector) (HistoryItem, bool) {
	items := c.History()
	if len(items) == 0 {
		return HistoryItem{}, false
	}
	return items[len(items)-1], true
}
