package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the devbasics namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "devbasics")
				So(manager.subsystem, ShouldEqual, "core")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("Then metrics should carry the const labels", func() {
				manager.previewsComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)

				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_previews_computed_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed to options", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "devbasics")
				So(manager.subsystem, ShouldEqual, "core")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording slot writes", func() {
			before := testutil.ToFloat64(globalManager.slotWrites.WithLabelValues("set", "ok"))
			RecordSlotWrite("set", "ok")
			RecordSlotWrite("set", "ok")

			Convey("Then the counter should increase", func() {
				after := testutil.ToFloat64(globalManager.slotWrites.WithLabelValues("set", "ok"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("auth", "invalid"))
			RecordSubmission("auth", "invalid")

			Convey("Then the labelled counter should increase", func() {
				after := testutil.ToFloat64(globalManager.submissions.WithLabelValues("auth", "invalid"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When toggling the signed-in gauge", func() {
			UpdateSignedIn(true)
			So(testutil.ToFloat64(globalManager.signedIn), ShouldEqual, 1)
			UpdateSignedIn(false)
			So(testutil.ToFloat64(globalManager.signedIn), ShouldEqual, 0)
		})

		Convey("When recording broadcast outcomes", func() {
			RecordBroadcastPublished("devbasics:auth")
			RecordBroadcastDropped("devbasics:auth", "full")
			RecordBroadcastDuplicate("devbasics:auth")
			UpdateBroadcastSubscribers("devbasics:auth", 3)

			Convey("Then each series should be populated", func() {
				So(testutil.ToFloat64(globalManager.broadcastPublished.WithLabelValues("devbasics:auth")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.broadcastDropped.WithLabelValues("devbasics:auth", "full")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.broadcastDuplicate.WithLabelValues("devbasics:auth")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.broadcastSubscribers.WithLabelValues("devbasics:auth")), ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordPreviewComputed()
				RecordUpstreamRequest("/assessment", "201", 12.5)
				RecordOverlayTransition("open")
				RecordWorkerProcessingLatency(0.3)
				RecordWorkerError()
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 1.2)
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/session/auth", "POST", "validation")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then our metrics should be exposed", func() {
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}
