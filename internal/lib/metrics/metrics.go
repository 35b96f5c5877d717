// Package metrics содержит счётчики Prometheus для слоя персистентности.
// Ошибки записи в удалённое хранилище не показываются пользователю,
// поэтому счётчики — единственный способ заметить деградацию синхронизации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result для записей.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Значения метки source для чтений: откуда фактически пришёл документ.
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
	SourceEmpty  = "empty"
)

var (
	// BlobWrites считает попытки записи документов в удалённое хранилище
	// по виду документа и результату.
	BlobWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visit_tracker_blob_writes_total",
		Help: "Remote document writes by kind and result.",
	}, []string{"kind", "result"})

	// BlobReads считает чтения документов по виду и фактическому источнику.
	BlobReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "visit_tracker_blob_reads_total",
		Help: "Document reads by kind and source that served them.",
	}, []string{"kind", "source"})

	// DroppedRecords считает записи, отброшенные проверкой формы при чтении.
	DroppedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visit_tracker_dropped_records_total",
		Help: "Stored records dropped by shape validation on read.",
	})
)
