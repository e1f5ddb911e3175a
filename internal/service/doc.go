// Package service contains the guide-building logic.
//
// Services cover the stages between the cache layer and the output file:
// - Assembler: merges decoded grid windows into the Schedule model
// - Enricher: applies cached series details to episodes in place
// - description composer: synthesizes summary text from a token order
// - XMLTVWriter: renders the completed Schedule deterministically
package service
