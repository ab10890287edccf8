// Package storage lists and deletes package artifacts in blob storage.
//
// A Backend lists objects under a prefix and deletes by prefix. GCSBackend
// uses the Cloud Storage JSON API, S3Backend uses the AWS SDK, and
// MemoryBackend serves tests. Client wraps a Backend and groups its listing
// into packages with GroupPackages:
//
//	my-prefix/my-app/2.51.3/a.js  \
//	my-prefix/my-app/2.51.3/b.js  -> my-app@2.51.3
//	my-prefix/my-app/2.50.0/a.js  -> my-app@2.50.0
//
// Deleting a package removes everything under "<prefix><name>/<version>/".
package storage
