// Package artifact holds the in-memory data blocks hand to each other through
// pipes. Every artifact reports its iotype.IOType so the executor can check
// it against the producing block's declared output.
package artifact
