// Package tarspan packs streams of files into capacity-bounded tar
// segments, each a complete standalone archive.
//
// The packer decides each entry's fate online: an entry whose exact byte
// footprint fits the remaining budget is written; one that does not is
// deferred onto a continuation list, and scanning continues so smaller
// entries behind a large one still fill the segment. Deferred paths come
// back in input order and feed the next run, so a span of media-sized
// segments is built by re-feeding continuations until nothing is left.
//
// Footprints are computed from metadata alone before any data is read:
// header blocks, GNU long-name records, content padding, and the
// end-of-archive trailer are all accounted up front, so a finished
// segment never exceeds its budget and never needs rewriting.
//
// # Quick Start
//
// Pack a list of paths into one 700 MB segment, deferring what does not
// fit:
//
//	var next bytes.Buffer
//	res, err := tarspan.Pack(ctx, tarspan.NewPathSource(list, false), out,
//	    tarspan.PackWithCapacity(700*1000*1000),
//	    tarspan.PackWithContinuation(&next),
//	)
//
// Re-feed the continuation until the span is complete:
//
//	for res.Continuation().Len() > 0 {
//	    res, err = tarspan.Pack(ctx, res.Continuation().Source(), nextOut,
//	        tarspan.PackWithCapacity(700*1000*1000),
//	    )
//	    ...
//	}
//
// Segments can be compressed at rest, recorded in a catalog for
// path-to-segment lookups, verified by digest, and pushed to OCI
// registries via the registry subpackage.
package tarspan
