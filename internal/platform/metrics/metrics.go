package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type Collector struct {
	totalRequests     uint64
	errorRequests     uint64
	totalDurationMs   uint64
	payslipsGenerated uint64
	eaFormsServed     uint64
	documentsRendered uint64
	rateTablesLoaded  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) PayslipGenerated() { c.inc(&c.payslipsGenerated) }
func (c *Collector) EAFormServed()     { c.inc(&c.eaFormsServed) }
func (c *Collector) DocumentRendered() { c.inc(&c.documentsRendered) }
func (c *Collector) RateTableLoaded()  { c.inc(&c.rateTablesLoaded) }

func (c *Collector) inc(counter *uint64) {
	if c == nil {
		return
	}
	atomic.AddUint64(counter, 1)
}

// Middleware records status and latency for every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.Record(status, time.Since(start))
	})
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"payslipsGeneratedTotal": atomic.LoadUint64(&c.payslipsGenerated),
		"eaFormsServedTotal":     atomic.LoadUint64(&c.eaFormsServed),
		"documentsRenderedTotal": atomic.LoadUint64(&c.documentsRendered),
		"rateTablesLoadedTotal":  atomic.LoadUint64(&c.rateTablesLoaded),
	}
}
