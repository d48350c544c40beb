package api

import (
	"fmt"
	"strconv"
)

// parseLimit parses a positive integer query parameter.
func parseLimit(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("limit must be positive, got %d", n)
	}
	return n, nil
}
