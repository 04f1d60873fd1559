// Package aggregate folds per-page keyword lists into a site-wide ranking.
package aggregate
