// Package config loads the healthz daemon configuration.
//
// Values come from three layers, later ones winning: built-in defaults, a
// YAML file, and HEALTHZ_* environment variables (HEALTHZ_HTTP_ADDR,
// HEALTHZ_RUNNER_MAX_CONCURRENCY, HEALTHZ_AUTH_JWT_SECRET, ...).
// Credential fields then pass through a secret.Resolver, so they may hold
// ${VAR} expansions or secretref: references.
//
// Downstreams can only be declared in the file.
package config
