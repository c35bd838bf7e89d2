package mux

import (
	"github.com/nazca/isomux/pkg/mp4/samplegroup"
	"github.com/nazca/isomux/pkg/mp4/sampletable"
)

func sampletableSampleOf(p *pendingEntry, delta uint32) sampletable.Sample {
	return sampletable.Sample{
		Duration:          delta,
		Size:              p.size,
		CompositionOffset: int32(p.cts - p.dts),
		ChunkIndex:        p.chunkIndex,
		Sync:              p.prop.RandomAccessType == RandomAccessSync,
		Leading:           p.prop.IsLeading,
		DependsOnOthers:   p.prop.DependsOnOthers,
		IsDependedOn:      p.prop.IsDependedOn,
		HasRedundancy:     p.prop.HasRedundancy,
	}
}

func samplegroupRollDistance(d int16) samplegroup.RollDistance {
	return samplegroup.RollDistance(d)
}
