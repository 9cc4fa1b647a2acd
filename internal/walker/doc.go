// Package walker finds filesystem entries whose permission bits match a
// perm.Spec.
//
// The walk is depth-first and pre-order. The root is stat'ed following
// symbolic links, so a root that links to a directory is walked as that
// directory. Every other entry is lstat'ed: a symbolic link below the root
// is matched on its own mode and never followed, which is what keeps the
// walk from looping on self-referential links.
//
// Sibling order is the order the directory listing returns and is not
// sorted. Callers that need a stable order sort the output themselves.
//
// By default the first stat or listing failure aborts the whole walk; paths
// already emitted are not retracted. Options.ContinueOnError instead records
// the failure, skips that entry and keeps going.
package walker
