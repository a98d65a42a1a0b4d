// Package config defines the format-agnostic pipeline manifest model and
// the Loader interface that produces it.
//
// The `config.Model` is what the app merges with command-line flags before
// running the pipeline. The HCL implementation of Loader lives in the hcl
// package.
package config
