// Package github audits GitHub organization membership.
//
// Backend lists organization members through the REST API, following the
// pagination chain advertised in Link response headers, and flags members
// with two-factor authentication disabled. In name-check mode it instead
// flags members whose public profile lacks a display name.
package github
