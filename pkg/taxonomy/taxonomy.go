// Package taxonomy defines the closed classification used to group and
// filter monitored I/O calls: coarse Domains (one bit each in the filter
// mask) and fine-grained Operations. Several library entry points may map
// to the same Operation (open, creat and buffered opens are all Open), but
// every Operation belongs to exactly one Domain.
package taxonomy

import "strings"

// Domain is a coarse category of related operations. The numeric value is
// stable and doubles as the domain's bit position in a filter mask.
type Domain int32

const (
	Links Domain = iota // link, unlink, readlink
	Xattrs
	Dirs
	FileSystems // mount, umount
	FileDescriptors
	Syncs
	Sockets
	Seeks
	FileSpace // fallocate, ftruncate
	Processes // start, stop
	FileMetadata
	FileWrite
	FileRead
	FileOpenClose
	Misc
	DirMetadata

	// DomainCount is a sentinel, never a real domain.
	DomainCount
)

// Operation is a specific tracked action, finer-grained than Domain.
type Operation int32

const (
	Open Operation = iota
	Close
	Write
	Read
	Sync
	Seek
	Rename
	Link
	Unlink
	Fcntl
	Dup
	Stat
	Access
	Chmod
	Chown
	Flock
	Readlink
	Utime
	Getxattr
	Setxattr
	Listxattr
	Removexattr
	Mount
	Umount
	Fork
	Mknod
	Mkdir
	Rmdir
	Chdir
	Chroot
	Socket
	Bind
	Connect
	Accept
	Flush
	Allocate
	Truncate
	Opendir
	Closedir
	Readdir
	Seekdir
	Telldir
	Dirfd
	Rewinddir
	Scandir

	// Start and Stop have no corresponding intercepted call. They are
	// emitted once each, at process attach and detach.
	Start
	Stop

	// OpCount is a sentinel, never a real operation.
	OpCount
)

var domainNames = [DomainCount]string{
	Links:           "LINKS",
	Xattrs:          "XATTRS",
	Dirs:            "DIRS",
	FileSystems:     "FILE_SYSTEMS",
	FileDescriptors: "FILE_DESCRIPTORS",
	Syncs:           "SYNCS",
	Sockets:         "SOCKETS",
	Seeks:           "SEEKS",
	FileSpace:       "FILE_SPACE",
	Processes:       "PROCESSES",
	FileMetadata:    "FILE_METADATA",
	FileWrite:       "FILE_WRITE",
	FileRead:        "FILE_READ",
	FileOpenClose:   "FILE_OPEN_CLOSE",
	Misc:            "MISC",
	DirMetadata:     "DIR_METADATA",
}

var opNames = [OpCount]string{
	Open:        "OPEN",
	Close:       "CLOSE",
	Write:       "WRITE",
	Read:        "READ",
	Sync:        "SYNC",
	Seek:        "SEEK",
	Rename:      "RENAME",
	Link:        "LINK",
	Unlink:      "UNLINK",
	Fcntl:       "FCNTL",
	Dup:         "DUP",
	Stat:        "STAT",
	Access:      "ACCESS",
	Chmod:       "CHMOD",
	Chown:       "CHOWN",
	Flock:       "FLOCK",
	Readlink:    "READLINK",
	Utime:       "UTIME",
	Getxattr:    "GETXATTR",
	Setxattr:    "SETXATTR",
	Listxattr:   "LISTXATTR",
	Removexattr: "REMOVEXATTR",
	Mount:       "MOUNT",
	Umount:      "UMOUNT",
	Fork:        "FORK",
	Mknod:       "MKNOD",
	Mkdir:       "MKDIR",
	Rmdir:       "RMDIR",
	Chdir:       "CHDIR",
	Chroot:      "CHROOT",
	Socket:      "SOCKET",
	Bind:        "BIND",
	Connect:     "CONNECT",
	Accept:      "ACCEPT",
	Flush:       "FLUSH",
	Allocate:    "ALLOCATE",
	Truncate:    "TRUNCATE",
	Opendir:     "OPENDIR",
	Closedir:    "CLOSEDIR",
	Readdir:     "READDIR",
	Seekdir:     "SEEKDIR",
	Telldir:     "TELLDIR",
	Dirfd:       "DIRFD",
	Rewinddir:   "REWINDDIR",
	Scandir:     "SCANDIR",
	Start:       "START",
	Stop:        "STOP",
}

var opDomains = [OpCount]Domain{
	Open:        FileOpenClose,
	Close:       FileOpenClose,
	Write:       FileWrite,
	Read:        FileRead,
	Sync:        Syncs,
	Seek:        Seeks,
	Rename:      Misc,
	Link:        Links,
	Unlink:      Links,
	Fcntl:       FileDescriptors,
	Dup:         FileDescriptors,
	Stat:        FileMetadata,
	Access:      FileMetadata,
	Chmod:       FileMetadata,
	Chown:       FileMetadata,
	Flock:       Misc,
	Readlink:    Links,
	Utime:       FileMetadata,
	Getxattr:    Xattrs,
	Setxattr:    Xattrs,
	Listxattr:   Xattrs,
	Removexattr: Xattrs,
	Mount:       FileSystems,
	Umount:      FileSystems,
	Fork:        Processes,
	Mknod:       Misc,
	Mkdir:       Dirs,
	Rmdir:       Dirs,
	Chdir:       Dirs,
	Chroot:      Misc,
	Socket:      Sockets,
	Bind:        Sockets,
	Connect:     Sockets,
	Accept:      Sockets,
	Flush:       Syncs,
	Allocate:    FileSpace,
	Truncate:    FileSpace,
	Opendir:     DirMetadata,
	Closedir:    DirMetadata,
	Readdir:     DirMetadata,
	Seekdir:     DirMetadata,
	Telldir:     DirMetadata,
	Dirfd:       DirMetadata,
	Rewinddir:   DirMetadata,
	Scandir:     DirMetadata,
	Start:       Processes,
	Stop:        Processes,
}

// String returns the stable upper-case name of the domain.
func (d Domain) String() string {
	if d < 0 || d >= DomainCount {
		return "UNKNOWN"
	}
	return domainNames[d]
}

// Bit returns the domain's position in a filter mask.
func (d Domain) Bit() uint32 {
	return 1 << uint32(d)
}

// String returns the stable upper-case name of the operation.
func (op Operation) String() string {
	if op < 0 || op >= OpCount {
		return "UNKNOWN"
	}
	return opNames[op]
}

// DomainOf maps an operation to its one owning domain. Out-of-range values
// classify as Misc so the mapping stays total.
func DomainOf(op Operation) Domain {
	if op < 0 || op >= OpCount {
		return Misc
	}
	return opDomains[op]
}

// MaskAll has every domain bit set.
const MaskAll = uint32(1<<DomainCount) - 1

// ParseDomainMask converts a comma-separated list of domain names, or the
// literal "ALL", into a filter mask. Unknown names are silently ignored:
// filtering is permissive-by-omission and never fails closed on a typo.
// An empty spec yields an empty mask (monitor nothing).
func ParseDomainMask(spec string) uint32 {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0
	}
	if strings.EqualFold(spec, "ALL") {
		return MaskAll
	}

	var mask uint32
	for _, name := range strings.Split(spec, ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		for d := Domain(0); d < DomainCount; d++ {
			if domainNames[d] == name {
				mask |= d.Bit()
				break
			}
		}
	}
	return mask
}
