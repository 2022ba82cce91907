// Package streetdump decodes a street-network binary dump (OSM PBF)
// into the raw node/way shapes internal/graphbuild expects, deferring
// all walkability judgement to the builder per the specification.
// Grounded on the two-pass osmpbf.Scanner idiom used for node/way
// extraction in other_examples' map-router OSM parser.
package streetdump

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/graphbuild"
)

// Decode reads a PBF stream and returns every node and way element
// found, tags intact. It does not apply the specification's
// acceptance rules -- that is graphbuild's job.
func Decode(ctx context.Context, r io.ReaderAt, size int64) ([]graphbuild.RawStreetNode, []graphbuild.RawStreetWay, error) {
	nodes, err := decodeNodes(ctx, io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode street nodes: %v", engineerr.ErrIngest, err)
	}
	ways, err := decodeWays(ctx, io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode street ways: %v", engineerr.ErrIngest, err)
	}
	return nodes, ways, nil
}

func decodeNodes(ctx context.Context, r io.Reader) ([]graphbuild.RawStreetNode, error) {
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	var nodes []graphbuild.RawStreetNode
	for scanner.Scan() {
		// osmpbf expands packed DenseNode blocks into individual
		// *osm.Node objects, so a single case covers plain nodes and
		// dense nodes alike.
		obj, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		nodes = append(nodes, graphbuild.RawStreetNode{
			ID:   int64(obj.ID),
			Lon:  obj.Lon,
			Lat:  obj.Lat,
			Tags: tagsToMap(obj.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func decodeWays(ctx context.Context, r io.Reader) ([]graphbuild.RawStreetWay, error) {
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	var ways []graphbuild.RawStreetWay
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		ids := make([]int64, len(way.Nodes))
		for i, n := range way.Nodes {
			ids[i] = int64(n.ID)
		}
		ways = append(ways, graphbuild.RawStreetWay{
			NodeIDs: ids,
			Tags:    tagsToMap(way.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ways, nil
}

func tagsToMap(tags osm.Tags) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[t.Key] = t.Value
	}
	return out
}
