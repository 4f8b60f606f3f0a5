// Package backup dumps and restores mapped tables as JSON lines, against
// any storage backend.
//
//	err := backup.Export(store.Backend(), store.Registry(),
//	    "s3://bucket/dump.jsonl", &backup.S3Config{Region: "us-east-1"},
//	    Item{}, Comment{})
//
// Dumps preserve identity keys, so reference columns survive a round trip.
// Destinations may be local paths, file:// or s3:// URLs; sources
// additionally accept http(s):// URLs.
package backup
