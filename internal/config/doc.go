// Package config loads and validates the integration's YAML configuration.
//
// The effective configuration is built by layering: defaults <- config file
// <- environment. Credentials can therefore stay out of the file entirely
// (JIRA_API_USERNAME / JIRA_API_TOKEN). The loaded Config is immutable by
// convention: it is passed by value into the components that need it.
package config
