// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Clustering constants
const (
	// DefaultAcceptThreshold is the face distance below which a candidate joins a
	// group without asking anyone
	DefaultAcceptThreshold = 0.4

	// DefaultRejectThreshold is the face distance at or above which a candidate is
	// considered a different person
	DefaultRejectThreshold = 0.6

	// SentinelDistance is returned when two faces cannot be compared.
	// It must stay at or above DefaultRejectThreshold.
	SentinelDistance = 1.0
)

// Output layout constants
const (
	// OutputDirName is created inside the input directory
	OutputDirName = "Faces_Agrupadas"

	// FailureDirName holds copies of images that could not be decoded
	FailureDirName = "Falha_na_Identificacao"

	// GroupDirPrefix is followed by the 1-based group number
	GroupDirPrefix = "Pessoa_"
)

// Image constants
const (
	// ThumbnailSize is the maximum dimension of images shown to an adjudicator
	ThumbnailSize = 512

	// AssistedImageSize is the maximum dimension of images sent to a vision model
	AssistedImageSize = 800
)

// SupportedExtensions lists the lowercase file extensions picked up by the scanner.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png"}
