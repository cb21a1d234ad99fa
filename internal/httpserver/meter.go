package httpserver

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RequestsMeter is the timer name under which HTTP request timings are published.
const RequestsMeter = "http.server.requests"

const uriLabel = "uri"

var promName = strings.NewReplacer(".", "_", "-", "_")

// TimerSnapshot is a point-in-time copy of one timer.
type TimerSnapshot struct {
	Count int64
	Total time.Duration
	Max   time.Duration
}

func (t TimerSnapshot) merge(o TimerSnapshot) TimerSnapshot {
	t.Count += o.Count
	t.Total += o.Total
	t.Max = max(t.Max, o.Max)
	return t
}

// timer is one named meter: a request counter, a seconds counter and a
// max-duration gauge, each labelled by uri.
type timer struct {
	count *prometheus.CounterVec
	total *prometheus.CounterVec
	max   *prometheus.GaugeVec
}

func newTimer(name string) *timer {
	base := promName.Replace(name)
	return &timer{
		count: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: base + "_count",
			Help: name + " observations",
		}, []string{uriLabel}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: base + "_seconds_total",
			Help: name + " cumulative duration in seconds",
		}, []string{uriLabel}),
		max: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: base + "_seconds_max",
			Help: name + " longest observation in seconds",
		}, []string{uriLabel}),
	}
}

func (t *timer) collectors() []prometheus.Collector {
	return []prometheus.Collector{t.count, t.total, t.max}
}

// Registry keeps cumulative timers keyed by meter name and uri tag in a
// private prometheus registry.
type Registry struct {
	mu     sync.Mutex
	reg    *prometheus.Registry
	timers map[string]*timer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry(), timers: make(map[string]*timer)}
}

// Gatherer exposes the underlying prometheus registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg
}

// Record adds one observation.
func (r *Registry) Record(name, uri string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[name]
	if !ok {
		t = newTimer(name)
		r.reg.MustRegister(t.collectors()...)
		r.timers[name] = t
	}

	secs := d.Seconds()
	t.count.WithLabelValues(uri).Inc()
	t.total.WithLabelValues(uri).Add(secs)

	g := t.max.WithLabelValues(uri)
	var m dto.Metric
	if err := g.Write(&m); err != nil || secs > m.GetGauge().GetValue() {
		g.Set(secs)
	}
}

// Snapshot returns the timer for name filtered to uri. An empty uri
// aggregates every uri. ok is false when nothing matches.
func (r *Registry) Snapshot(name, uri string) (snap TimerSnapshot, ok bool) {
	byURI, found := r.gather(name)
	if !found {
		return TimerSnapshot{}, false
	}
	if uri != "" {
		snap, ok = byURI[uri]
		return snap, ok
	}
	for _, t := range byURI {
		snap = snap.merge(t)
	}
	return snap, true
}

// gather reads every uri series of one timer back from the registry.
func (r *Registry) gather(name string) (map[string]TimerSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[name]; !ok {
		return nil, false
	}
	families, err := r.reg.Gather()
	if err != nil {
		return nil, false
	}

	base := promName.Replace(name)
	out := make(map[string]TimerSnapshot)
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			u := labelValue(m, uriLabel)
			s := out[u]
			switch fam.GetName() {
			case base + "_count":
				s.Count = int64(m.GetCounter().GetValue())
			case base + "_seconds_total":
				s.Total = seconds(m.GetCounter().GetValue())
			case base + "_seconds_max":
				s.Max = seconds(m.GetGauge().GetValue())
			default:
				continue
			}
			out[u] = s
		}
	}
	return out, true
}

// Names lists registered meter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.timers))
	for n := range r.timers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// URIs lists the uri tag values recorded under name in sorted order.
func (r *Registry) URIs(name string) []string {
	byURI, _ := r.gather(name)
	uris := make([]string, 0, len(byURI))
	for u := range byURI {
		uris = append(uris, u)
	}
	sort.Strings(uris)
	return uris
}

// Reset drops every timer.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reg = prometheus.NewRegistry()
	r.timers = make(map[string]*timer)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}
