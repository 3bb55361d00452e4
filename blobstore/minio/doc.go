// Package minio stores table blobs in a MinIO or other S3-compatible bucket.
//
// A [Store] maps blob names to object keys under a root prefix. Saving a
// table streams its bytes into a single PutObject; loading one reads the
// object back with ranged GetObject calls. Pass the store to the Save and
// Load methods of a tabula Context:
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tc, err := tabula.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tc.Close()
//
//	store := minioblob.NewStore(client, "tables", "events/")
//	if err := tc.Save(ctx, store, "2026-10.tab", t); err != nil {
//	    log.Fatal(err)
//	}
//	loaded, err := tc.Load(ctx, store, "2026-10.tab")
//
// Missing objects are reported as [blobstore.ErrNotFound].
package minio
