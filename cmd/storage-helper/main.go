// storage-helper removes package artifacts that no import map references
// from the blob store that serves them.
//
// Usage:
//
//	# Show what would be deleted
//	storage-helper clean --dry-run
//
//	# Delete unused packages
//	storage-helper clean --config /etc/storage-helper/config.yaml
//
//	# Check the configuration and rule chain
//	storage-helper validate
//
//	# List recent runs from the journal
//	storage-helper history --limit 10
//
//	# Show version information
//	storage-helper version
package main

func main() {
	Execute()
}
