// Package version provides build-time version information.
//
// Set it with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/ncobase/scoutcore/version.Version=1.2.3 \
//	  -X github.com/ncobase/scoutcore/version.Branch=main \
//	  -X github.com/ncobase/scoutcore/version.Revision=abc123 \
//	  -X 'github.com/ncobase/scoutcore/version.BuiltAt=$(date)'" \
//	  ./cmd/scoutcore
//
// Without ldflags, the revision and commit time recorded by the go command
// in the binary's build info are used.
package version
