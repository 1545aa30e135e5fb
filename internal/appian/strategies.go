package appian

// Per-type parse strategies. Each one extracts the shared identity fields,
// the code-like body its object kind carries, and the structured fields the
// typed differs compare. The XML queries are deliberately tolerant: export
// schemas drift between Appian versions and a miss degrades to empty fields,
// not an error.

type interfaceParser struct{}

func (interfaceParser) Type() ObjectType { return TypeInterface }

func (p *interfaceParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	var params []any
	for _, n := range root.all("parameter", "namedtypedvalue", "ruleinput") {
		params = append(params, map[string]any{
			"name":     nodeName(n),
			"type":     nodeType(n),
			"required": n.attr("required") == "true" || n.firstText("required") == "true",
		})
	}
	var roles []any
	for _, n := range root.all("role", "rolemapentry", "securityrole") {
		roles = append(roles, map[string]any{
			"name":  nodeName(n),
			"level": n.attr("level"),
		})
	}

	body := root.firstText("definition", "sail", "expression")
	if body == "" {
		body = root.flatText()
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeInterface,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: body,
		StructuredFields: map[string]any{
			"parameters":     emptySlice(params),
			"security_roles": emptySlice(roles),
		},
		RawSource: string(data),
	}, nil
}

type processModelParser struct{}

func (processModelParser) Type() ObjectType { return TypeProcessModel }

func (p *processModelParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	var nodes []any
	for _, n := range root.all("node", "processnode") {
		nodes = append(nodes, map[string]any{
			"uuid": n.attr("uuid"),
			"name": nodeName(n),
			"type": nodeType(n),
		})
	}
	var flows []any
	for _, n := range root.all("flow", "connection") {
		flows = append(flows, map[string]any{
			"from": firstNonEmpty(n.attr("from"), n.firstText("from", "startnode")),
			"to":   firstNonEmpty(n.attr("to"), n.firstText("to", "endnode")),
		})
	}
	var variables []any
	for _, n := range root.all("variable", "processvariable", "pv") {
		variables = append(variables, map[string]any{
			"name": nodeName(n),
			"type": nodeType(n),
		})
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeProcessModel,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: root.flatText(),
		StructuredFields: map[string]any{
			"nodes":     emptySlice(nodes),
			"flows":     emptySlice(flows),
			"variables": emptySlice(variables),
		},
		RawSource: string(data),
	}, nil
}

type recordTypeParser struct{}

func (recordTypeParser) Type() ObjectType { return TypeRecordType }

func (p *recordTypeParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	var fields []any
	for _, n := range root.all("field", "recordfield", "sourcefield") {
		fields = append(fields, map[string]any{
			"name": nodeName(n),
			"type": nodeType(n),
		})
	}
	var actions []any
	for _, n := range root.all("action", "recordaction", "relatedaction") {
		actions = append(actions, map[string]any{
			"name":   nodeName(n),
			"target": firstNonEmpty(n.attr("target"), n.firstText("target", "processmodeluuid")),
		})
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeRecordType,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: root.flatText(),
		StructuredFields: map[string]any{
			"fields":  emptySlice(fields),
			"actions": emptySlice(actions),
		},
		RawSource: string(data),
	}, nil
}

type expressionRuleParser struct{}

func (expressionRuleParser) Type() ObjectType { return TypeExpressionRule }

func (p *expressionRuleParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	var inputs []any
	for _, n := range root.all("input", "ruleinput", "namedtypedvalue") {
		inputs = append(inputs, map[string]any{
			"name": nodeName(n),
			"type": nodeType(n),
		})
	}

	body := root.firstText("definition", "expression", "sail")
	if body == "" {
		body = root.flatText()
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeExpressionRule,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: body,
		StructuredFields: map[string]any{
			"inputs": emptySlice(inputs),
		},
		RawSource: string(data),
	}, nil
}

type cdtParser struct{}

func (cdtParser) Type() ObjectType { return TypeCDT }

func (p *cdtParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	namespace := firstNonEmpty(
		root.attr("targetnamespace", "namespace"),
		root.firstText("namespace"),
	)
	var fields []any
	for _, n := range root.all("element", "field") {
		fieldName := nodeName(n)
		if fieldName == "" {
			continue
		}
		fields = append(fields, map[string]any{
			"name": fieldName,
			"type": nodeType(n),
		})
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeCDT,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: root.flatText(),
		StructuredFields: map[string]any{
			"namespace": namespace,
			"fields":    emptySlice(fields),
		},
		RawSource: string(data),
	}, nil
}

type constantParser struct{}

func (constantParser) Type() ObjectType { return TypeConstant }

func (p *constantParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	value := root.firstText("value", "constantvalue")
	typedAs := firstNonEmpty(root.attr("type"), root.firstText("type", "typeref"))

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        TypeConstant,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: value,
		StructuredFields: map[string]any{
			"value": value,
			"type":  typedAs,
		},
		RawSource: string(data),
	}, nil
}

// genericParser serves the object kinds without a dedicated structured
// extraction (integrations, web APIs, sites, groups, connected systems, data
// stores). Top-level scalar children become the structured fields.
type genericParser struct {
	objectType ObjectType
}

func (p *genericParser) Type() ObjectType { return p.objectType }

func (p *genericParser) Parse(relPath string, data []byte) (*ObjectRecord, error) {
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, err
	}
	uuid, name, description, version := identity(root, relPath)

	fields := map[string]any{}
	target := root
	if len(root.Children) == 1 && len(root.Children[0].Children) > 0 {
		target = root.Children[0]
	}
	for _, c := range target.Children {
		if len(c.Children) == 0 && c.Text != "" {
			fields[c.Name] = c.Text
		}
	}

	return &ObjectRecord{
		UUID:              uuid,
		Name:              name,
		ObjectType:        p.objectType,
		Description:       description,
		VersionIdentifier: version,
		SerializedContent: root.flatText(),
		StructuredFields:  fields,
		RawSource:         string(data),
	}, nil
}

func nodeName(n *xmlNode) string {
	return firstNonEmpty(n.attr("name"), n.firstText("name"), n.Text)
}

func nodeType(n *xmlNode) string {
	return firstNonEmpty(n.attr("type"), n.firstText("type", "typeref"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// emptySlice keeps JSON serialization stable: nil slices marshal as null,
// which the differs would read as a shape change.
func emptySlice(in []any) []any {
	if in == nil {
		return []any{}
	}
	return in
}
