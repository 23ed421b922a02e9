package request

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultAUMDays is the AUM history window used when days is not given.
const DefaultAUMDays = 30

// ParseDays reads the days query parameter, defaulting to DefaultAUMDays.
// Range checks are left to the service.
func ParseDays(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("days"))
	if raw == "" {
		return DefaultAUMDays, nil
	}
	return strconv.Atoi(raw)
}

// ParseOwnerIDs reads the owner_id query parameter. It may be repeated or
// comma-separated. Returns nil when absent, meaning all owners.
func ParseOwnerIDs(query url.Values) []string {
	values, ok := query["owner_id"]
	if !ok {
		return nil
	}

	return SplitList(values...)
}

// SplitList splits comma-separated values into trimmed, non-empty parts.
// The result is never nil.
func SplitList(values ...string) []string {
	parts := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				parts = append(parts, p)
			}
		}
	}
	return parts
}
