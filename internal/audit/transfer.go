package audit

import (
	"math"

	"github.com/nao1215/ecoaudit/internal/model"
)

// Compression ratios assumed when a resource has no network record.
const (
	stylesheetCompressionRatio = 0.2
	scriptCompressionRatio     = 0.33
	defaultCompressionRatio    = 0.5
)

// EstimateTransferSize estimates how many bytes of a resource of totalBytes
// decoded bytes travel over the network.
//
// Without a record a typical compression ratio for the resource type is
// assumed. A record of the same type gives the exact transfer size. A record
// of another type (e.g. inline content inside a document) lends its
// compression ratio.
func EstimateTransferSize(record *model.NetworkRecord, totalBytes int64, resourceType string) int64 {
	if record == nil {
		switch resourceType {
		case model.ResourceTypeStylesheet:
			return roundBytes(float64(totalBytes) * stylesheetCompressionRatio)
		case model.ResourceTypeScript, model.ResourceTypeDocument:
			return roundBytes(float64(totalBytes) * scriptCompressionRatio)
		default:
			return roundBytes(float64(totalBytes) * defaultCompressionRatio)
		}
	}

	if record.ResourceType == resourceType {
		return record.TransferSize
	}

	compression := 1.0
	if record.ResourceSize > 0 {
		compression = float64(record.TransferSize) / float64(record.ResourceSize)
	}
	return roundBytes(float64(totalBytes) * compression)
}

func roundBytes(b float64) int64 {
	return int64(math.Round(b))
}
