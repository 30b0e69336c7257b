// Package sqlbuild constructs SQL statements for the analytic store from
// structured filter parameters. The engine offers no bound parameters for
// this statement shape, so every caller-supplied literal must pass a strict
// allow-list before it is interpolated; anything else is rejected up front.
package sqlbuild

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	safeIdentifier = regexp.MustCompile(`^[A-Za-z0-9_\-:.]+$`)
	safeDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// InvalidInputError marks a filter value that failed allow-list validation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Filters carries the structured lookup parameters. Limit must already be
// clamped (see ClampLimit); DeviceID and Date are validated here.
type Filters struct {
	DeviceID string
	Date     string
	Latest   bool
	Limit    int
}

// Builder renders statements against a single qualified table.
type Builder struct {
	database string
	table    string
}

func NewBuilder(database, table string) *Builder {
	return &Builder{database: database, table: table}
}

// ClampLimit bounds a requested row limit to [1, MaxLimit]. The default for
// an absent parameter is applied by the caller, not here.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Build renders the statement for the given filters. When Latest is set the
// statement keeps the most recent event per sensor; otherwise it returns the
// newest events first under the clamped limit.
func (b *Builder) Build(f Filters) (string, error) {
	if f.Latest {
		return b.latestStatusQuery(f.DeviceID)
	}
	return b.filteredQuery(f)
}

func (b *Builder) filteredQuery(f Filters) (string, error) {
	var where []string

	if f.DeviceID != "" {
		if !safeIdentifier.MatchString(f.DeviceID) {
			return "", &InvalidInputError{Field: "device_id", Reason: "must match [A-Za-z0-9_-:.]"}
		}
		where = append(where, fmt.Sprintf("device_id = '%s'", f.DeviceID))
	}
	if f.Date != "" {
		if !safeDate.MatchString(f.Date) {
			return "", &InvalidInputError{Field: "date", Reason: "expected YYYY-MM-DD"}
		}
		where = append(where, fmt.Sprintf("event_date = '%s'", f.Date))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ") + "\n"
	}

	stmt := fmt.Sprintf("SELECT *\nFROM %s.%s\n%sORDER BY event_timestamp DESC\nLIMIT %d",
		b.database, b.table, whereClause, ClampLimit(f.Limit))
	return stmt, nil
}

// latestStatusQuery ranks events per sensor by recency and keeps rank 1, so
// each spot appears exactly once with its current status.
func (b *Builder) latestStatusQuery(deviceID string) (string, error) {
	where := []string{"rn = 1"}

	if deviceID != "" {
		if !safeIdentifier.MatchString(deviceID) {
			return "", &InvalidInputError{Field: "device_id", Reason: "must match [A-Za-z0-9_-:.]"}
		}
		where = append(where, fmt.Sprintf("device_id = '%s'", deviceID))
	}

	stmt := fmt.Sprintf(`SELECT * FROM (
    SELECT *, row_number() OVER (PARTITION BY sensor_id ORDER BY event_timestamp DESC) as rn
    FROM %s.%s
)
WHERE %s
ORDER BY sensor_id ASC`, b.database, b.table, strings.Join(where, " AND "))
	return stmt, nil
}
