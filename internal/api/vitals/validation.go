package vitals

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
)

const (
	defaultHistoryDays = 7
	maxHistoryLimit    = 1000
)

// parseWindow reads the days and limit query parameters.
func parseWindow(r *http.Request) (monitoring.AggregateOptions, error) {
	opts := monitoring.AggregateOptions{Days: defaultHistoryDays}

	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return opts, fmt.Errorf("days must be a non-negative integer")
		}
		opts.Days = days
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("limit must be a non-negative integer")
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		opts.Limit = limit
	}

	return opts, nil
}

// parseThresholdQuery reads the age and conditions query parameters.
// A missing age falls back to the adult default.
func parseThresholdQuery(r *http.Request) (int, []string, error) {
	age := monitoring.DefaultAge
	if raw := r.URL.Query().Get("age"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 150 {
			return 0, nil, fmt.Errorf("age must be an integer between 0 and 150")
		}
		age = parsed
	}

	var conditions []string
	if raw := r.URL.Query().Get("conditions"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				conditions = append(conditions, c)
			}
		}
	}

	return age, conditions, nil
}
