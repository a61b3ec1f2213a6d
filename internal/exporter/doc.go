// Package exporter writes datasets and imputed replica sets back out as
// CSV for handoff to downstream reporting or modeling tools.
package exporter
