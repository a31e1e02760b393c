package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Admin route groups used as the "group" label.
const (
	GroupHealth    = "health"
	GroupMetrics   = "metrics"
	GroupSessions  = "sessions"
	GroupUnmatched = "unmatched"
)

// unmatchedRoute stands in for paths with no registered route so scanners
// cannot grow label cardinality.
const unmatchedRoute = "<unmatched>"

var routeGroups = map[string]string{
	"/health":   GroupHealth,
	"/ready":    GroupHealth,
	"/metrics":  GroupMetrics,
	"/sessions": GroupSessions,
}

// RouteGroup maps a registered gin route to its admin group.
func RouteGroup(route string) string {
	if group, ok := routeGroups[route]; ok {
		return group
	}
	return GroupUnmatched
}

// AdminRequests records and logs every admin request under its route group.
// Health and scrape traffic logs at debug; session views log at info so
// operator lookups show up in runtime logs.
func AdminRequests(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		group := RouteGroup(route)
		status := c.Writer.Status()
		RecordHTTPRequest(group, route, c.Request.Method, status, elapsed)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case group == GroupSessions:
			event = logger.Info()
		default:
			event = logger.Debug()
		}
		event.
			Str("group", group).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", status).
			Dur("duration", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("bytectl.admin request")
	}
}
