// Package watch keeps the pipeline running against a live workspace by
// re-triggering it after debounced filesystem activity in the input
// directories.
package watch
