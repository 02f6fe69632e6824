// Package relay moves a single uploaded file into object storage through a presigned URL.
//
// The flow is strictly sequential: a Signer issues a Descriptor (a short-lived write URL and
// the key the object will be stored under), then an ObjectStore PUTs the file bytes to that URL.
// Nothing is persisted between requests.
//
// # Basic Usage
//
//	svc, err := relay.New(
//	    relay.WithSigner(signer.NewHTTPSigner("https://signer.example.com/generate-upload-url")),
//	    relay.WithObjectStore(objectstore.NewClient()),
//	)
//	result, err := svc.Relay(ctx, relay.Upload{FileName: "photo.JPG", Body: f, Size: size})
//	// result.FileKey is the key returned by the signer
//	// result.ContentType is "image/jpg"
//
// # Errors
//
// Every error returned by Relay is a *Error whose Kind tells the caller how to report it:
// KindInput for bad client input, KindUpstream for signer or object store failures and
// KindContract for a signer response that does not carry the required fields.
package relay
