// Package command defines the mixrelay-server command line.
//
// Running the binary without a subcommand starts the relay. The other
// subcommands validate configuration, print the version, and inspect a
// stopped relay's swap store.
package command
