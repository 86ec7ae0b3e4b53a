package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// installFastExit makes interrupts and memory faults end the process at once.
// Deferred calls do not run and the output file is left unclosed.
func installFastExit() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGHUP, syscall.SIGSEGV, syscall.SIGBUS)
	go func() {
		sig := <-signals
		switch sig {
		case syscall.SIGSEGV:
			fmt.Fprintln(os.Stderr, "Got SEGV. Exiting.")
		case syscall.SIGBUS:
			fmt.Fprintln(os.Stderr, "Got BUS. Exiting.")
		default:
			fmt.Fprintln(os.Stderr, "Got Ctrl-C or similar. Exiting.")
		}
		os.Exit(1)
	}()
}
