// Package awsiam audits AWS IAM users for missing multi-factor authentication.
//
// Backend requests a credential report, waits for it to be generated with a
// bounded exponential backoff, then decodes the CSV report and flags every
// user whose mfa_active column is false.
package awsiam
