package consumer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/Lutefd/log-pipeline/internal/model"
)

// Stats is owned by a single consuming goroutine and passed explicitly into
// every Process call, so it needs no locking.
type Stats struct {
	Total     int
	Errors    int
	ByService map[string]int
	ByLevel   map[model.LogLevel]int
	Alerts    map[model.AlertKind]int
}

func NewStats() *Stats {
	return &Stats{
		ByService: make(map[string]int),
		ByLevel:   make(map[model.LogLevel]int),
		Alerts:    make(map[model.AlertKind]int),
	}
}

func (s *Stats) Record(record model.LogRecord) {
	s.Total++
	s.ByService[record.Service]++
	s.ByLevel[record.Level]++
}

func (s *Stats) RecordFailure() {
	s.Errors++
}

func (s *Stats) RecordAlert(kind model.AlertKind) {
	s.Alerts[kind]++
}

func (s *Stats) Snapshot() model.StatsSnapshot {
	snap := model.StatsSnapshot{
		Total:     s.Total,
		Errors:    s.Errors,
		ByService: make(map[string]int, len(s.ByService)),
		ByLevel:   make(map[model.LogLevel]int, len(s.ByLevel)),
		Alerts:    make(map[model.AlertKind]int, len(s.Alerts)),
		TakenAt:   time.Now().UTC(),
	}
	for k, v := range s.ByService {
		snap.ByService[k] = v
	}
	for k, v := range s.ByLevel {
		snap.ByLevel[k] = v
	}
	for k, v := range s.Alerts {
		snap.Alerts[k] = v
	}
	return snap
}

func (s *Stats) Report() {
	logger.Infof("Consumer stats: %d processed, %d errors", s.Total, s.Errors)
	logger.Infof("  by service: %s", formatCounts(s.ByService))
	logger.Infof("  by level:   %s", formatCounts(s.ByLevel))
	if len(s.Alerts) > 0 {
		logger.Infof("  alerts:     %s", formatCounts(s.Alerts))
	}
}

func formatCounts[K ~string](counts map[K]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[K(k)]))
	}
	return strings.Join(parts, " ")
}
