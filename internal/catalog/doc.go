// Package catalog defines the types and interfaces shared by the sampler's
// fetch, extract, archive, and export stages.
package catalog
