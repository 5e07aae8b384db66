// Package mongodb implements the storage ports on MongoDB Atlas.
//
// Two collections are used:
//
//   - documents: one record per legal document
//   - vectors: one record per chunk, denormalised with the parent document
//     type so filters run inside the collection
//
// Vector search uses the Atlas $vectorSearch aggregation stage against a
// vector index on the embedding field (see VectorIndexDefinition). Keyword
// search uses a Portuguese $text index over the search_text field. When the
// Atlas vector index is missing, vector search logs the failure and returns
// no hits so keyword search keeps working.
package mongodb
