package wireline

import (
	"net"
	"os"
)

// Stdio returns a Transport over the process's standard input and output.
// This is the conventional arrangement for a child process driven by a parent
// over pipes.
func Stdio(opt ...Option) (*Transport, error) {
	return New(os.Stdin, os.Stdout, opt...)
}

// FromConn returns a Transport over a duplex network connection. The
// connection serves as both streams; closing the transport closes it.
func FromConn(conn net.Conn, opt ...Option) (*Transport, error) {
	if conn == nil {
		return nil, ErrInvalidReader
	}
	return New(conn, conn, opt...)
}
