// Package signer provides relay.Signer implementations.
//
// HTTPSigner calls a remote signing service:
//
//	GET <endpoint>?fileName=<name>  ->  {"upload_url": "...", "file_key": "..."}
//
// S3Signer presigns PutObject requests in-process with the AWS SDK, for deployments that hold
// bucket credentials themselves.
package signer
