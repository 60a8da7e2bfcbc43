// Package poller drives the periodic REST refresh cycle. It applies
// aggregated snapshots to the price store on a fixed interval so the store
// stays current even when the push stream is down, and it surfaces assets
// whose data has gone stale.
package poller
