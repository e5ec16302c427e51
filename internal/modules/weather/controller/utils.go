package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

func parseLimitQuery(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultEventsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be at least 1, got %d", limit)
	}
	if limit > maxEventsLimit {
		limit = maxEventsLimit
	}
	return limit, nil
}
