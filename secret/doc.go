// Package secret resolves credentials referenced from the daemon's
// configuration: downstream bearer tokens, the JWT signing secret and
// API keys.
//
// A value is first expanded strictly: ${VAR} must be set, and $$ yields a
// literal dollar sign. The result may then be, or contain, a reference:
//
//	secretref:env:BILLING_TOKEN
//	Bearer secretref:file:/run/secrets/billing
//
// The env and file providers are built in; others implement Provider.
package secret
