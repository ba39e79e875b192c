// Package daemon implements serve mode: the site is rebuilt when content
// changes, received webmentions are fetched on a schedule and metrics are
// exposed over HTTP.
package daemon
