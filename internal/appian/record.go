package appian

// ObjectRecord is the typed result of parsing one object file out of an
// export package. It is the whole contract between the parser boundary and
// the extraction pipeline.
type ObjectRecord struct {
	UUID        string
	Name        string
	ObjectType  ObjectType
	Description string

	VersionIdentifier string

	// SerializedContent holds the code-like body of the object (SAIL
	// definition, rule expression, constant value) when one exists.
	SerializedContent string

	// StructuredFields holds the type-specific structured data (parameters,
	// nodes, fields) that the typed differs compare.
	StructuredFields map[string]any

	// RawSource preserves the original file verbatim.
	RawSource string
}
