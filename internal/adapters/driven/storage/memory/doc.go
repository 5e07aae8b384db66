// Package memory provides in-memory implementations of the storage ports.
//
// The stores keep everything in maps guarded by a mutex. They back the
// `lexrag chunk` dry runs, ephemeral sessions started with --ephemeral, and the
// service tests. VectorIndex and SearchEngine resolve filters through the
// DocumentStore they are built with.
package memory
