// Package config provides configuration structures and utilities for ecoaudit.
// It defines the options for gathering pages, running audits, storing history
// and generating reports, plus the optional .ecoaudit YAML file with per-site
// request settings, video probing settings and category weight overrides.
package config
