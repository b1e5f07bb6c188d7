// Package sqlvars is a thin convenience layer over database/sql: connection construction for three engine dialects (pgsql, mysql, sqlite), a handful of fetch-shape helpers, and a textual Query-Vars mechanism that resolves {$NAME}-style placeholders in SQL text before it reaches the prepared-statement layer. It is not a query builder and not an ORM — bind parameters still belong to the driver; Query-Vars only splice trusted, validated fragments (a sort direction, a table suffix) into the SQL text itself.

package sqlvars
