// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tables/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = table.Save(ctx, store, "events.tab", t)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large tables
//   - CRC32C checksums on single-request uploads
//   - Configurable prefix for multi-tenant isolation
package s3
