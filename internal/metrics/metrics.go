package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadRows: banka/DITIB yüklemelerinde satır sonuçları (status etiketi:
	// Success/Skipped/Unmatched/Failed).
	UploadRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_upload_rows_total",
		Help: "Ekstre yüklemelerinde işlenen satır sayısı, sonuç durumuna göre.",
	}, []string{"source", "status"})

	// SummaryCache: üye finansal özet önbellek isabetleri (result: hit/miss).
	SummaryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finanz_summary_cache_total",
		Help: "Üye finansal özet önbellek sonuçları.",
	}, []string{"result"})

	// AllocationsCreated: dağıtım motorunun oluşturduğu dağıtım kayıtları.
	AllocationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_allocations_created_total",
		Help: "Oluşturulan ödeme dağıtım kaydı sayısı.",
	})
)
