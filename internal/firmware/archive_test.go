package firmware

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTarGz(t *testing.T, files map[string][]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Size: int64(len(data)),
			Mode: 0644,
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return &buf
}

func TestExtractBinPicksApplicationImage(t *testing.T) {
	archive := buildTarGz(t, map[string][]byte{
		"bootloader.bin":          []byte("boot"),
		"partition-table.bin":     []byte("parts"),
		"merged-flash.bin":        []byte("merged"),
		"esparrier-xiao-esp32s3.bin": []byte("firmware-bytes"),
	})

	data, err := ExtractBin(archive)
	require.NoError(t, err)
	require.Equal(t, []byte("firmware-bytes"), data)
}

func TestExtractBinNoMatch(t *testing.T) {
	archive := buildTarGz(t, map[string][]byte{
		"bootloader.bin": []byte("boot"),
		"readme.txt":     []byte("hi"),
	})

	_, err := ExtractBin(archive)
	require.Error(t, err)
}
