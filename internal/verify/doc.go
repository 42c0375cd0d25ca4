// Package verify checks the partition assignment recorded in the metadata
// store against the live server and storage fleets.
//
// A run has four phases executed in order:
//
//   - assignment validity: the metadata assignment is checked on its own,
//     without contacting any node.
//   - server consistency: every server is asked, in parallel, which
//     partitions it serves, and the answer is diffed against the metadata.
//   - storage consistency: every storage node is asked, in parallel, which
//     partitions it holds and whether each is available.
//   - quorum: a partition passes when more than half of the registered
//     storage nodes report it available.
//
// Node failures never abort a run. They become FAIL outcomes for the
// partitions that node was responsible for.
package verify
