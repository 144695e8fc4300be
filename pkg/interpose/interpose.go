// Package interpose is the call-interception layer: one thin wrapper per
// monitored I/O entry point, each with the same shape as the primitive it
// stands in for. A wrapper invokes the original implementation, times it,
// derives the error code by the original's own success convention, reports
// the call through the monitor, and returns the original result unmodified.
//
// Original entry points are resolved lazily, exactly once per process, and
// cached forever; tests substitute their own bindings through the same
// seam. Classification is data-driven: the calls table maps each
// entry-point name to its (Domain, Operation) pair so the wrappers stay
// mechanical.
package interpose

import (
	"errors"

	"github.com/saworbit/iotrace/pkg/taxonomy"
)

// ErrUnsupported is returned by New on platforms without the syscall
// bindings the wrapper layer is built on.
var ErrUnsupported = errors.New("interpose: not supported on this platform")

// CallSpec classifies one intercepted entry point.
type CallSpec struct {
	Domain taxonomy.Domain
	Op     taxonomy.Operation
}

// calls is the prototype table: intercepted-name to classification. Several
// entry points share an operation (open, creat and opendir's underlying
// open all report differently-named rows but a single OPEN-family op).
var calls = map[string]CallSpec{
	"open":  {taxonomy.FileOpenClose, taxonomy.Open},
	"creat": {taxonomy.FileOpenClose, taxonomy.Open},
	"close": {taxonomy.FileOpenClose, taxonomy.Close},

	"write":  {taxonomy.FileWrite, taxonomy.Write},
	"pwrite": {taxonomy.FileWrite, taxonomy.Write},
	"read":   {taxonomy.FileRead, taxonomy.Read},
	"pread":  {taxonomy.FileRead, taxonomy.Read},

	"fsync":     {taxonomy.Syncs, taxonomy.Sync},
	"fdatasync": {taxonomy.Syncs, taxonomy.Sync},
	"sync":      {taxonomy.Syncs, taxonomy.Sync},
	"syncfs":    {taxonomy.Syncs, taxonomy.Sync},
	"flush":     {taxonomy.Syncs, taxonomy.Flush},

	"seek": {taxonomy.Seeks, taxonomy.Seek},

	"setxattr":     {taxonomy.Xattrs, taxonomy.Setxattr},
	"lsetxattr":    {taxonomy.Xattrs, taxonomy.Setxattr},
	"fsetxattr":    {taxonomy.Xattrs, taxonomy.Setxattr},
	"getxattr":     {taxonomy.Xattrs, taxonomy.Getxattr},
	"lgetxattr":    {taxonomy.Xattrs, taxonomy.Getxattr},
	"fgetxattr":    {taxonomy.Xattrs, taxonomy.Getxattr},
	"listxattr":    {taxonomy.Xattrs, taxonomy.Listxattr},
	"llistxattr":   {taxonomy.Xattrs, taxonomy.Listxattr},
	"flistxattr":   {taxonomy.Xattrs, taxonomy.Listxattr},
	"removexattr":  {taxonomy.Xattrs, taxonomy.Removexattr},
	"lremovexattr": {taxonomy.Xattrs, taxonomy.Removexattr},
	"fremovexattr": {taxonomy.Xattrs, taxonomy.Removexattr},

	"mount":  {taxonomy.FileSystems, taxonomy.Mount},
	"umount": {taxonomy.FileSystems, taxonomy.Umount},

	"stat":      {taxonomy.FileMetadata, taxonomy.Stat},
	"lstat":     {taxonomy.FileMetadata, taxonomy.Stat},
	"fstat":     {taxonomy.FileMetadata, taxonomy.Stat},
	"access":    {taxonomy.FileMetadata, taxonomy.Access},
	"faccessat": {taxonomy.FileMetadata, taxonomy.Access},
	"chmod":     {taxonomy.FileMetadata, taxonomy.Chmod},
	"fchmod":    {taxonomy.FileMetadata, taxonomy.Chmod},
	"fchmodat":  {taxonomy.FileMetadata, taxonomy.Chmod},
	"chown":     {taxonomy.FileMetadata, taxonomy.Chown},
	"fchown":    {taxonomy.FileMetadata, taxonomy.Chown},
	"lchown":    {taxonomy.FileMetadata, taxonomy.Chown},
	"fchownat":  {taxonomy.FileMetadata, taxonomy.Chown},
	"utimes":    {taxonomy.FileMetadata, taxonomy.Utime},

	"rename":   {taxonomy.Misc, taxonomy.Rename},
	"link":     {taxonomy.Links, taxonomy.Link},
	"unlink":   {taxonomy.Links, taxonomy.Unlink},
	"readlink": {taxonomy.Links, taxonomy.Readlink},
	"flock":    {taxonomy.Misc, taxonomy.Flock},
	"mknod":    {taxonomy.Misc, taxonomy.Mknod},
	"chroot":   {taxonomy.Misc, taxonomy.Chroot},

	"dup":   {taxonomy.FileDescriptors, taxonomy.Dup},
	"fcntl": {taxonomy.FileDescriptors, taxonomy.Fcntl},

	"truncate":  {taxonomy.FileSpace, taxonomy.Truncate},
	"ftruncate": {taxonomy.FileSpace, taxonomy.Truncate},
	"fallocate": {taxonomy.FileSpace, taxonomy.Allocate},

	"mkdir": {taxonomy.Dirs, taxonomy.Mkdir},
	"rmdir": {taxonomy.Dirs, taxonomy.Rmdir},
	"chdir": {taxonomy.Dirs, taxonomy.Chdir},

	"opendir":   {taxonomy.DirMetadata, taxonomy.Opendir},
	"fdopendir": {taxonomy.DirMetadata, taxonomy.Opendir},
	"closedir":  {taxonomy.DirMetadata, taxonomy.Closedir},
	"readdir":   {taxonomy.DirMetadata, taxonomy.Readdir},
	"seekdir":   {taxonomy.DirMetadata, taxonomy.Seekdir},
	"telldir":   {taxonomy.DirMetadata, taxonomy.Telldir},
	"rewinddir": {taxonomy.DirMetadata, taxonomy.Rewinddir},
	"scandir":   {taxonomy.DirMetadata, taxonomy.Scandir},

	"socket":  {taxonomy.Sockets, taxonomy.Socket},
	"bind":    {taxonomy.Sockets, taxonomy.Bind},
	"connect": {taxonomy.Sockets, taxonomy.Connect},
	"accept":  {taxonomy.Sockets, taxonomy.Accept},
}

// classify returns the table entry for an intercepted name. The mapping is
// total: a name missing from the table reports as uncategorized rather than
// dropping the observation.
func classify(name string) CallSpec {
	if cs, ok := calls[name]; ok {
		return cs
	}
	return CallSpec{Domain: taxonomy.Misc, Op: taxonomy.OpCount}
}
