// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Redemption outcomes.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultExpired = "expired"
	ResultMissing = "missing"
	ResultError   = "error"
)

// Domain counts business events. A nil *Domain records nothing.
type Domain struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	sharesIssued  prometheus.Counter
	redemptions   *prometheus.CounterVec
	sweptTokens   prometheus.Counter
}

// New creates the domain counters and registers them on reg.
func New(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filevault_registrations_total",
			Help: "Account registrations by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filevault_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filevault_upload_bytes_total",
			Help: "Bytes accepted by successful uploads.",
		}),
		sharesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filevault_share_tokens_issued_total",
			Help: "Share tokens issued.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filevault_share_redemptions_total",
			Help: "Share token redemptions by result.",
		}, []string{"result"}),
		sweptTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "filevault_share_tokens_swept_total",
			Help: "Expired share tokens removed by the sweeper.",
		}),
	}

	for _, c := range []prometheus.Collector{d.registrations, d.logins, d.uploadBytes, d.sharesIssued, d.redemptions, d.sweptTokens} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func okOrFailed(ok bool) string {
	if ok {
		return ResultOK
	}
	return "failed"
}

func (d *Domain) Registration(ok bool) {
	if d == nil {
		return
	}
	d.registrations.WithLabelValues(okOrFailed(ok)).Inc()
}

func (d *Domain) Login(ok bool) {
	if d == nil {
		return
	}
	d.logins.WithLabelValues(okOrFailed(ok)).Inc()
}

func (d *Domain) Uploaded(size int64) {
	if d == nil || size <= 0 {
		return
	}
	d.uploadBytes.Add(float64(size))
}

func (d *Domain) ShareIssued() {
	if d == nil {
		return
	}
	d.sharesIssued.Inc()
}

// Redemption records one redemption attempt with one of the Result* values.
func (d *Domain) Redemption(result string) {
	if d == nil {
		return
	}
	d.redemptions.WithLabelValues(result).Inc()
}

func (d *Domain) Swept(n int64) {
	if d == nil || n <= 0 {
		return
	}
	d.sweptTokens.Add(float64(n))
}
