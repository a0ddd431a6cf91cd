package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/elvenok1/servidor-api-rag/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	It("records search outcomes", func() {
		m := metrics.New()
		m.ObserveSearch("success", 20*time.Millisecond, 3)
		m.ObserveSearch("invalid_argument", time.Millisecond, -1)

		Expect(testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("success"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("invalid_argument"))).To(Equal(1.0))
		Expect(testutil.CollectAndCount(m.SearchResults)).To(Equal(1))
	})

	It("tracks readiness", func() {
		m := metrics.New()
		m.SetReadiness(2)
		Expect(testutil.ToFloat64(m.ReadinessState)).To(Equal(2.0))
	})

	It("is a no-op when nil", func() {
		var m *metrics.Metrics
		Expect(func() {
			m.ObserveSearch("success", time.Second, 1)
			m.ObserveEmbedding(time.Second)
			m.ObserveVectorQuery(time.Second)
			m.SetReadiness(1)
			m.ObserveHTTP("GET", "/", 200, time.Second)
		}).NotTo(Panic())
		Expect(m.CacheLookups()).To(BeNil())
	})

	It("serves the exposition format", func() {
		m := metrics.New()
		m.ObserveHTTP("POST", "/v1/search", 200, 5*time.Millisecond)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		Expect(rec.Code).To(Equal(http.StatusOK))

		body, err := io.ReadAll(rec.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`ragsearch_http_requests_total{method="POST",path="/v1/search",status="200"} 1`))
		Expect(string(body)).To(ContainSubstring("go_goroutines"))
	})
})
