// Package pipeline moves pages from a dump into an index.
//
// One producer reads the dump in order, filters and normalises titles, and
// hands records to a bounded queue. A fixed pool of workers takes records,
// drops short bodies, assigns ids from a shared allocator and writes to the
// index. The producer ends every run by enqueueing exactly one stop marker
// per worker, so each worker exits after consuming its own marker.
//
//	dump.Reader → Producer → Queue(K) → Worker × N → store.Index
package pipeline
