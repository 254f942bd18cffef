package graph

// LinkTarget names one endpoint of a link: a gate id and one of its ports.
// Grounded on original_source/srcRust/link.rs's LinkTarget.
type LinkTarget struct {
	GateID string
	Port   string
}

// Link is a directed edge from an output port to an input port, owned by
// a Graph. Grounded on original_source/srcRust/link.rs's Link.
type Link struct {
	ID   string
	From LinkTarget
	To   LinkTarget
}
