// Package mmap maps finished table files read-only into memory.
//
// A file-backed builder closes its write handle on Build and the resulting
// table reads rows straight out of the mapping:
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.AccessRandom)
//	header, err := m.Slice(0, 16)
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and ignores
// access hints. A Mapping may be read from many goroutines. Slices obtained
// from it are invalid after Close.
package mmap
