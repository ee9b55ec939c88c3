// Package cache provides the local tier of the query result cache.
//
// It defines the Store interface that local cache backends implement,
// deterministic QueryKey derivation from (query, params) pairs, the
// CacheRecord value type carried between tiers, and the staleness/TTL
// Policy. Memory and Redis backed stores are included.
package cache
