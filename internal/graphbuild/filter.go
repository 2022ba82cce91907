package graphbuild

// excludedHighways lists the highway tag values that disqualify a way
// from street ingest, matched exactly against the specification.
var excludedHighways = map[string]bool{
	"abandoned":    true,
	"bus_guideway": true,
	"construction": true,
	"cycleway":     true,
	"motor":        true,
	"no":           true,
	"planned":      true,
	"platform":     true,
	"proposed":     true,
	"raceway":      true,
	"razed":        true,
}

// isWalkableNode accepts a street-network node iff its tag set does
// not mark it pedestrian-forbidden.
func isWalkableNode(tags map[string]string) bool {
	return tags["foot"] != "no"
}

// isWalkableWay accepts a street-network way iff it carries a
// non-excluded highway tag and is not explicitly closed to
// pedestrians or marked private-service.
func isWalkableWay(tags map[string]string) bool {
	highway, hasHighway := tags["highway"]
	if !hasHighway {
		return false
	}
	if excludedHighways[highway] {
		return false
	}
	if tags["foot"] == "no" {
		return false
	}
	if tags["service"] == "private" {
		return false
	}
	return true
}
