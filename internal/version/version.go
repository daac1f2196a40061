// Package version carries the build-time version string shared by all
// three binaries' startup banners.
package version

// String is overridden at link time with:
//
//	go build -ldflags "-X github.com/e7canasta/distimaging/internal/version.String=1.2.3"
var String = "dev"
