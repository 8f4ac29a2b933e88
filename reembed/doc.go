// Package reembed provides batch tooling for embedding a verse corpus
// with a new or updated embedding model.
//
// This package supports batch processing of verses, progress tracking,
// retry logic with exponential backoff, vector normalization, and
// checkpointed resume so an interrupted run picks up where it stopped.
package reembed
