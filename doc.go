// Package accounts implements a pluggable user account module:
// registration with email activation, opaque session tokens with a
// sliding expiration window, password change, and signed password
// reset links. Storage runs on bun, the HTTP surface on fiber, and
// every external dependency (config, logging, email transport) is
// injected by the host application.
package accounts
