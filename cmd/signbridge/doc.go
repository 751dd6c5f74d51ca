// Command signbridge is the command line client for the signbridged daemon.
package main
