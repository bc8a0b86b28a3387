// Package download runs submitted jobs through a bounded worker pool.
//
// Service is the entry point: it admits jobs into the registry, routes
// playlist sources through the resolver, and hands everything else to the
// Scheduler. All job mutation flows through the progress reporter, so
// observers see each job's updates in the order workers produced them.
package download
