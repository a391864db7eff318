package model

import (
	"encoding/json"
	"strconv"
)

const NotAvailable = "N/A"

// Metric is a rating value that may be missing upstream.
type Metric struct {
	Value float64
	Valid bool
}

func Available(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

func (m Metric) String() string {
	if !m.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(m.Value)
}

type Rating struct {
	ReviewCount  Metric
	AverageScore Metric
}

func UnavailableRating() Rating {
	return Rating{}
}
