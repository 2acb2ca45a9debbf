package model

import "time"

type StatsSnapshot struct {
	Total     int               `json:"total"`
	Errors    int               `json:"errors"`
	ByService map[string]int    `json:"by_service"`
	ByLevel   map[LogLevel]int  `json:"by_level"`
	Alerts    map[AlertKind]int `json:"alerts"`
	TakenAt   time.Time         `json:"taken_at"`
}

type ProducerSnapshot struct {
	Published int            `json:"published"`
	Failed    int            `json:"failed"`
	ByService map[string]int `json:"by_service"`
	TakenAt   time.Time      `json:"taken_at"`
}
