package registry

const (
	// ArtifactType identifies a span artifact manifest.
	ArtifactType = "application/vnd.meigma.tarspan.v1"

	// MediaTypeSegment is the media type of a segment layer. The layer
	// bytes are the segment file as stored, compression included.
	MediaTypeSegment = "application/vnd.meigma.tarspan.segment.v1+tar"

	// MediaTypeCatalog is the media type of the catalog layer.
	MediaTypeCatalog = "application/vnd.meigma.tarspan.catalog.v1+cbor"
)
