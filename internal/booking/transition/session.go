package transition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
)

// ParseSessionTime accepts "H:MM" or "HH:MM:SS" and returns the canonical "HH:MM:SS" form.
func ParseSessionTime(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", domain.Validation(domain.CodeInvalidValue, "session_time")
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n > 59) {
			return "", domain.Validation(domain.CodeInvalidValue, "session_time")
		}
		nums[i] = n
	}
	return fmt.Sprintf("%02d:%02d:%02d", nums[0], nums[1], nums[2]), nil
}

// FormatSessionTime renders an elapsed duration as "HH:MM:SS". Negative durations count as zero.
func FormatSessionTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// HumanSessionTime renders a canonical session time the way it appears in messages, e.g. "1 tim 5 min".
func HumanSessionTime(s string) string {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return s
	}
	return fmt.Sprintf("%d tim %d min", h, m)
}
