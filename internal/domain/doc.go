// Package domain defines the core guide entities and interfaces for gridguide.
//
// This package contains the Schedule aggregate (stations and their airings),
// the supplemental series-detail model, the source interfaces implemented by
// the clients package, and the sentinel errors used to distinguish
// transient-skip outcomes from fatal ones.
package domain
