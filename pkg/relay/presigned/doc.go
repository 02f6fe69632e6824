// Package presigned is a self-contained stand-in for the remote signer and object store.
//
// A Signer issues HMAC-SHA256 signed, time-limited URLs that point back at this server.
// Handlers serves these routes:
//
//	GET /generate-upload-url?fileName=<name>      issues {"upload_url", "file_key"}
//	GET /generate-download-url?fileKey=<key>      issues {"download_url"}
//	PUT /objects/{key}?signature=...&expires=...  validates the URL and stores the body
//	GET /objects/{key}?signature=...&expires=...  validates the URL and returns the body
//
// Uploaded bytes are held in a memstore.Store, so nothing touches the local filesystem.
// The store is never pruned and grows with every upload; local mode is for development only.
//
// # Basic Usage
//
//	signer := presigned.New("http://localhost:8080", presigned.WithSecretKey(secret))
//	handlers := presigned.NewHandlers(signer, memstore.New())
//	handlers.Mount(router)
package presigned
