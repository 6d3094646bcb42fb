// Package startup loads the poster browser's configuration from the
// environment and logs the effective values at boot.
package startup
