package constants

import "strings"

// Stage names used in logs and done-list titles.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// TransformedSuffix marks artifacts produced by the transform stage.
// The transform catalog excludes them from its own input, and the load
// catalog selects only them.
const TransformedSuffix = "_transformed.json"

// AllowedExtensions holds the file extensions each stage enumerates.
var (
	ExtractExtensions = []string{"pdf"}
	JSONExtensions    = []string{"json"}
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// TransformedName maps an input key to its transform-stage artifact name.
func TransformedName(key string) string {
	stem := strings.TrimSuffix(key, ".json")
	return stem + TransformedSuffix
}

// SourceKeyFromTransformed maps a transform artifact back to its input key.
func SourceKeyFromTransformed(artifact string) (string, bool) {
	if !strings.HasSuffix(artifact, TransformedSuffix) {
		return "", false
	}
	return strings.TrimSuffix(artifact, TransformedSuffix) + ".json", true
}
