package ingestion_engine

import "os/exec"

// externalConverters are binaries docconv shells out to, keyed by the format
// that degrades to generated content without them.
var externalConverters = map[string]string{
	".doc": "wvText",
}

var lookPath = exec.LookPath

// MissingConverters lists formats whose external converter is not on PATH,
// mapped to the binary name.
func MissingConverters() map[string]string {
	missing := map[string]string{}
	for ext, bin := range externalConverters {
		if _, err := lookPath(bin); err != nil {
			missing[ext] = bin
		}
	}
	return missing
}
