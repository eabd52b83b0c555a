// Package firmware extracts the OTA-compatible firmware image from a
// release tarball (§4.6).
package firmware

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"strings"

	"esparrier/internal/device"
)

// ExtractBin decompresses a gzip stream, walks its tar entries, and
// returns the bytes of the first entry whose path ends in ".bin" and does
// not contain "bootloader", "partition", or "merged" — the OTA-compatible
// application image, as opposed to the bootloader, partition table, or
// full merged flash dump that ship alongside it in the same release
// archive.
func ExtractBin(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, device.IoError("failed to open firmware archive", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, device.IoError("failed to read firmware archive", err)
		}
		if !isFirmwareBin(hdr.Name) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, device.IoError("failed to read firmware entry", err)
		}
		return data, nil
	}
	return nil, device.FormatError("no firmware .bin file found in the archive")
}

// isFirmwareBin reports whether path names the OTA application image
// rather than the bootloader, partition table, or merged flash dump.
func isFirmwareBin(path string) bool {
	if !strings.HasSuffix(path, ".bin") {
		return false
	}
	for _, excluded := range []string{"bootloader", "partition", "merged"} {
		if strings.Contains(path, excluded) {
			return false
		}
	}
	return true
}
