package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sr_sync_cards_total",
	Help: "counter of per-card sync outcomes, by outcome (new, updated, deleted, unchanged)",
}, []string{"outcome"})
