//go:build linux

package interpose

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Socket creates an endpoint for communication.
func (f *FS) Socket(domain, typ, proto int) (int, error) {
	start := time.Now()
	fd, err := f.orig.socket(domain, typ, proto)
	end := time.Now()
	f.report("socket", fdOr(fd, err), "", "", start, end, err, 0)
	return fd, err
}

// Bind assigns the address sa to fd. The recorded form is "ip:port", which
// the offline visualizer pairs with later CONNECT records.
func (f *FS) Bind(fd int, sa unix.Sockaddr) error {
	start := time.Now()
	err := f.orig.bind(fd, sa)
	end := time.Now()
	f.report("bind", fd, sockaddrString(sa), "", start, end, err, 0)
	return err
}

// Connect connects fd to the address sa.
func (f *FS) Connect(fd int, sa unix.Sockaddr) error {
	start := time.Now()
	err := f.orig.connect(fd, sa)
	end := time.Now()
	f.report("connect", fd, sockaddrString(sa), "", start, end, err, 0)
	return err
}

// Accept accepts a connection on the listening descriptor fd.
func (f *FS) Accept(fd int) (int, unix.Sockaddr, error) {
	start := time.Now()
	nfd, sa, err := f.orig.accept(fd)
	end := time.Now()
	f.report("accept", fdOr(nfd, err), sockaddrString(sa), "", start, end, err, 0)
	return nfd, sa, err
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%x]:%d", a.Addr, a.Port)
	case *unix.SockaddrUnix:
		return a.Name
	default:
		return ""
	}
}
