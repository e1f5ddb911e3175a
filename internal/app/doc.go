// Package app provides application wiring and the pipeline driver.
//
// App wires configuration, provider clients, the cache layer and the guide
// services together. Pipeline executes one run end to end: retention sweep,
// window priming and assembly, series-detail enrichment, document rendering,
// and cache pruning. Scheduling repeated runs is the caller's concern.
package app
