// Package health monitors storage provider reachability. The Monitor
// probes every configured connector concurrently; the Scheduler runs
// periodic sweeps and persists the results alongside usage figures.
package health
