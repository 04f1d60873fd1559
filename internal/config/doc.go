// Package config holds the options of a crawl: command-line settings with
// their defaults and validation, and the optional YAML file with per-site
// headers, cookies, URL patterns and page budgets.
package config
