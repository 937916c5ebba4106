// Package slack audits a Slack workspace for members without two-factor
// authentication using the users.list Web API method.
package slack
