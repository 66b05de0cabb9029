// Package preflight checks the folders, programs and sockets an export
// depends on, gated by the features the configuration enables. The probe
// command prints the results; exports never block on them.
package preflight
