package fusion

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/pattern"
)

// mergeInto is the shared edge-relinking primitive behind both pipe-fusion
// and flat-fusion: survivor absorbs every node and edge of absorbed, and
// absorbed is deleted. Edges that would become self-edges (because they
// already ran between survivor and absorbed) are simply dropped rather
// than relinked, since they are now internal to survivor.
func mergeInto(g *cluster.Graph, survivor, absorbed *cluster.Cluster) {
	for _, n := range absorbed.NodeList {
		g.AddToBody(survivor, n)
	}
	for _, n := range absorbed.InList {
		g.AddToInputs(survivor, n)
	}
	for _, n := range absorbed.OutList {
		g.AddToOutputs(survivor, n)
	}
	survivor.Pattern |= absorbed.Pattern

	for _, e := range append([]cluster.Edge(nil), absorbed.Prev...) {
		if e.Other == survivor.ID() {
			g.RemovePrevEdge(g.Get(e.Other), absorbed)
			continue
		}
		top := g.Get(e.Other)
		if top == nil {
			continue
		}
		topToBot := e.Pattern
		botToTop := nextPatternTo(top, absorbed.ID())
		g.RemovePrevEdge(top, absorbed)
		g.AddPrevEdge(top, survivor, botToTop, topToBot)
	}
	for _, e := range append([]cluster.Edge(nil), absorbed.Next...) {
		if e.Other == survivor.ID() {
			g.RemovePrevEdge(absorbed, g.Get(e.Other))
			continue
		}
		bot := g.Get(e.Other)
		if bot == nil {
			continue
		}
		botToTop := e.Pattern
		topToBot := prevPatternTo(bot, absorbed.ID())
		g.RemovePrevEdge(absorbed, bot)
		g.AddPrevEdge(survivor, bot, botToTop, topToBot)
	}
	g.Delete(absorbed.ID())
}

// nextPatternTo returns the pattern annotation on c's Next edge to other,
// i.e. "how c sees other" from c's own successor-side perspective.
func nextPatternTo(c *cluster.Cluster, other cluster.ID) pattern.Pattern {
	for _, e := range c.Next {
		if e.Other == other {
			return e.Pattern
		}
	}
	return 0
}

// prevPatternTo returns the pattern annotation on c's Prev edge to other.
func prevPatternTo(c *cluster.Cluster, other cluster.ID) pattern.Pattern {
	for _, e := range c.Prev {
		if e.Other == other {
			return e.Pattern
		}
	}
	return 0
}
