package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cardsServed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sr_session_cards_served_total",
	Help: "counter of cards served to review sessions",
})

var reviewsGraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sr_reviews_total",
	Help: "counter of graded reviews, by grade",
}, []string{"grade"})
