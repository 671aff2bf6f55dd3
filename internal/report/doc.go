// Package report builds and renders the access summary shown at the end of
// a run and by the summary command.
//
// Building never fails: every live query that errors degrades to the
// Unavailable placeholder, and the errors are collected for DEBUG logging.
package report
