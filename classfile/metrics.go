package classfile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	duplicateMembers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classfile_duplicate_members_total",
			Help: "Total duplicate member definitions by kind (field or method).",
		},
		[]string{"kind"},
	)
	bridgeReplacements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classfile_bridge_replacements_total",
			Help: "Total bridge methods replaced by a method with the same descriptor.",
		},
	)
)
