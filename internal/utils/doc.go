// Package utils exposes the configuration loader, logger factory and output
// helpers shared by the otpcop command.
package utils
