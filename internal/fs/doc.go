// Package fs abstracts the filesystem operations used by temp streams and
// file-backed table builds.
//
//   - [File]: an open file that can be read, written, seeked and synced
//   - [FileSystem]: open, create-temp, remove and stat
//
// [LocalFS] is the production implementation and [Default] points at it.
// [FaultyFS] wraps another FileSystem and injects write, sync, close or open
// failures so tests can drive the error paths of spilling buffers and builders:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("stream-", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context.Context. Local file calls are not interruptible
// at the syscall level; remote storage goes through the blobstore package.
package fs
