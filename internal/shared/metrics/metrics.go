package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	casesCreatedTotal  atomic.Uint64
	casesDeletedTotal  atomic.Uint64
	filesUploadedTotal atomic.Uint64
	filesRejectedTotal atomic.Uint64

	remindersSentTotal   atomic.Uint64
	remindersFailedTotal atomic.Uint64

	reminderJobsReceivedTotal            atomic.Uint64
	reminderJobsCompletedTotal           atomic.Uint64
	reminderJobsFailedTotal              atomic.Uint64
	reminderJobsDeletedUnrecoverableTotal atomic.Uint64

	uploadDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncCasesCreated increments the created-case counter.
func IncCasesCreated() {
	casesCreatedTotal.Add(1)
}

// IncCasesDeleted increments the deleted-case counter.
func IncCasesDeleted() {
	casesDeletedTotal.Add(1)
}

// IncFilesUploaded increments the uploaded-file counter.
func IncFilesUploaded() {
	filesUploadedTotal.Add(1)
}

// IncFilesRejected increments the rejected-file counter.
func IncFilesRejected() {
	filesRejectedTotal.Add(1)
}

// IncRemindersSent increments the sent-reminder counter.
func IncRemindersSent() {
	remindersSentTotal.Add(1)
}

// IncRemindersFailed increments the failed-reminder counter.
func IncRemindersFailed() {
	remindersFailedTotal.Add(1)
}

// IncReminderJobsReceived increments the worker received counter.
func IncReminderJobsReceived() {
	reminderJobsReceivedTotal.Add(1)
}

// IncReminderJobsCompleted increments the worker completed counter.
func IncReminderJobsCompleted() {
	reminderJobsCompletedTotal.Add(1)
}

// IncReminderJobsFailed increments the worker failed counter.
func IncReminderJobsFailed() {
	reminderJobsFailedTotal.Add(1)
}

// IncReminderJobsDeletedUnrecoverable increments the unrecoverable-delete counter.
func IncReminderJobsDeletedUnrecoverable() {
	reminderJobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveUploadDurationMs records a file upload duration in milliseconds.
func ObserveUploadDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	uploadDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "cases_created_total", "Total cases created", casesCreatedTotal.Load())
	writeCounter(&buf, "cases_deleted_total", "Total cases deleted", casesDeletedTotal.Load())
	writeCounter(&buf, "files_uploaded_total", "Total case files uploaded", filesUploadedTotal.Load())
	writeCounter(&buf, "files_rejected_total", "Total case files rejected", filesRejectedTotal.Load())
	writeCounter(&buf, "reminders_sent_total", "Total reminder emails sent", remindersSentTotal.Load())
	writeCounter(&buf, "reminders_failed_total", "Total reminder emails failed", remindersFailedTotal.Load())
	writeCounter(&buf, "reminder_jobs_received_total", "Total reminder jobs received", reminderJobsReceivedTotal.Load())
	writeCounter(&buf, "reminder_jobs_completed_total", "Total reminder jobs completed", reminderJobsCompletedTotal.Load())
	writeCounter(&buf, "reminder_jobs_failed_total", "Total reminder jobs failed", reminderJobsFailedTotal.Load())
	writeCounter(&buf, "reminder_jobs_deleted_unrecoverable_total", "Total unrecoverable reminder jobs deleted", reminderJobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "upload_duration_ms", "File upload duration in milliseconds", uploadDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
