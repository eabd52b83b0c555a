package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectAssetPicksModelPrefixedTarball(t *testing.T) {
	rel := githubRelease{
		TagName: "v1.4.0",
		Assets: []Asset{
			{Name: "esparrier-devkitc-1_0-v1.4.0.tar.gz"},
			{Name: "esparrier-xiao-esp32s3-v1.4.0.tar.gz"},
			{Name: "esparrier-xiao-esp32s3-v1.4.0.bin"}, // wrong suffix
		},
	}

	info, err := selectAsset(rel, "xiao-esp32s3")
	require.NoError(t, err)
	require.Equal(t, "esparrier-xiao-esp32s3-v1.4.0.tar.gz", info.Asset.Name)
	require.Equal(t, "v1.4.0", info.Tag)
	require.Equal(t, "v1.4.0", info.Version)
}

func TestSelectAssetNoMatch(t *testing.T) {
	rel := githubRelease{TagName: "v1.4.0", Assets: []Asset{{Name: "esparrier-generic-v1.4.0.tar.gz"}}}
	_, err := selectAsset(rel, "xiao-esp32s3")
	require.Error(t, err)
}
