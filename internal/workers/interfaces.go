// Package workers runs the server's background maintenance loops and
// ties their lifecycle to the process.
package workers

// Worker is a background loop the server starts at boot and drains at
// shutdown. Run must return immediately, spawning goroutines for the
// actual work; Stop blocks until those goroutines have finished.
type Worker interface {
	Run()
	Stop()
}
