package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simarket_ticks_total",
		Help: "Hour advancements applied to the session.",
	})
	currentHour = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simarket_current_hour",
		Help: "Absolute hour of the session clock.",
	})
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simarket_orders_total",
		Help: "Accepted orders by direction.",
	}, []string{"direction"})
	predictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simarket_predictions_total",
		Help: "Predictions served over the API.",
	})
	streamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simarket_stream_clients",
		Help: "Connected websocket subscribers.",
	})
)
