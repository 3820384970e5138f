package order

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const idKeyLayout = "060102"

func idPrefix(day time.Time) string {
	return day.Format(idKeyLayout)
}

// nextOrderID returns the identifier following latest within prefix's day.
// An empty latest starts the day's sequence at 1.
func nextOrderID(prefix, latest string) (string, error) {
	serial := 0
	if latest != "" {
		suffix := strings.TrimPrefix(latest, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil || suffix == latest {
			return "", fmt.Errorf("malformed order id %q for prefix %s", latest, prefix)
		}
		serial = n
	}
	return fmt.Sprintf("%s%03d", prefix, serial+1), nil
}
