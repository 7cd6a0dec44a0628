package conquest

// Edge connects two distinct territories and holds units in transit.
type Edge struct {
	ID    ID     `json:"id"`
	A     ID     `json:"a"`
	B     ID     `json:"b"`
	Units IDList `json:"units"`
}

func (e *Edge) EntityID() ID { return e.ID }
func (e *Edge) Kind() Kind   { return KindEdge }

func (e *Edge) clone() Entity {
	c := *e
	c.Units = e.Units.Clone()
	return &c
}

// Connects reports whether the edge joins a and b, in either order.
func (e *Edge) Connects(a, b ID) bool {
	return (e.A == a && e.B == b) || (e.A == b && e.B == a)
}

// Other returns the endpoint opposite t, or NoID if t is not an endpoint.
func (e *Edge) Other(t ID) ID {
	switch t {
	case e.A:
		return e.B
	case e.B:
		return e.A
	}
	return NoID
}

// EdgeID returns the canonical id for the edge joining a and b.
func EdgeID(a, b ID) ID {
	if b < a {
		a, b = b, a
	}
	return "edge:" + a + ":" + b
}
