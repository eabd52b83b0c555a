package device

// modelNames maps the one-byte model_id reported by GetState to the
// asset-name slug used to locate the matching firmware release. Values not
// present here are unknown models; 255 is the generic/fallback board.
var modelNames = map[byte]string{
	1:   "m5atoms3-lite",
	2:   "m5atoms3",
	3:   "m5atoms3r",
	4:   "devkitc-1_0",
	5:   "devkitc-1_1",
	6:   "xiao-esp32s3",
	7:   "esp32-s3-eth",
	255: "generic",
}

// ModelName resolves a model_id byte to its asset-name slug. The second
// return value is false for unrecognized model_ids.
func ModelName(modelID byte) (string, bool) {
	name, ok := modelNames[modelID]
	return name, ok
}
