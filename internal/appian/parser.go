package appian

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
)

// Parser converts one object file into a typed record. One strategy exists
// per recognized object type; the registry dispatches on file shape.
type Parser interface {
	Type() ObjectType
	Parse(relPath string, data []byte) (*ObjectRecord, error)
}

// Registry resolves a file to its parser and applies it. Unresolvable or
// unparseable files come back as Unknown records with raw content preserved,
// never as fatal errors.
type Registry struct {
	byType map[ObjectType]Parser
}

func NewRegistry() *Registry {
	r := &Registry{byType: map[ObjectType]Parser{}}
	r.register(&interfaceParser{})
	r.register(&processModelParser{})
	r.register(&recordTypeParser{})
	r.register(&expressionRuleParser{})
	r.register(&cdtParser{})
	r.register(&constantParser{})
	for _, t := range []ObjectType{
		TypeIntegration, TypeWebAPI, TypeSite, TypeGroup,
		TypeConnectedSystem, TypeDataStore,
	} {
		r.register(&genericParser{objectType: t})
	}
	return r
}

func (r *Registry) register(p Parser) {
	r.byType[p.Type()] = p
}

// ParserFor returns the registered strategy for the given type.
func (r *Registry) ParserFor(t ObjectType) (Parser, bool) {
	p, ok := r.byType[t]
	return p, ok
}

// ParseFile resolves the object type from the file's location and root
// element, then runs the matching strategy. The returned error is always an
// *apperr.ParseError; callers recover from it by using UnknownRecord.
func (r *Registry) ParseFile(relPath string, data []byte) (*ObjectRecord, error) {
	if len(data) == 0 {
		return nil, &apperr.ParseError{Path: relPath, Reason: "empty file"}
	}
	root, err := parseXMLTree(data)
	if err != nil {
		return nil, &apperr.ParseError{Path: relPath, Reason: "malformed xml", Err: err}
	}

	objType, ok := detectType(relPath, root)
	if !ok {
		return nil, &apperr.ParseError{Path: relPath, Reason: "unrecognized object shape"}
	}
	p := r.byType[objType]
	if p == nil {
		return nil, &apperr.ParseError{Path: relPath, Reason: fmt.Sprintf("no parser for type %s", objType)}
	}

	rec, err := p.Parse(relPath, data)
	if err != nil {
		return nil, &apperr.ParseError{Path: relPath, Reason: "strategy failed", Err: err}
	}
	if strings.TrimSpace(rec.UUID) == "" {
		return nil, &apperr.ParseError{Path: relPath, Reason: "object has no uuid"}
	}
	return rec, nil
}

// UnknownRecord builds the degraded record for a file that could not be
// parsed. The UUID is derived from the file path so re-extracting the same
// package stays deduplicated.
func UnknownRecord(relPath string, data []byte) *ObjectRecord {
	sum := sha256.Sum256([]byte(path.Clean(filepath.ToSlash(relPath))))
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	return &ObjectRecord{
		UUID:              "unparsed-" + hex.EncodeToString(sum[:16]),
		Name:              name,
		ObjectType:        TypeUnknown,
		SerializedContent: string(data),
		StructuredFields:  map[string]any{},
		RawSource:         string(data),
	}
}

func detectType(relPath string, root *xmlNode) (ObjectType, bool) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) > 1 {
		for _, part := range parts[:len(parts)-1] {
			if t, ok := TypeForDir(part); ok {
				return t, true
			}
		}
	}
	if t, ok := TypeForRoot(root.Name); ok {
		return t, true
	}
	// Haul wrappers nest the real object one level down.
	for _, c := range root.Children {
		if t, ok := TypeForRoot(c.Name); ok {
			return t, true
		}
	}
	return TypeUnknown, false
}

// identity pulls the fields every export schema shares.
func identity(root *xmlNode, relPath string) (uuid, name, description, version string) {
	uuid = root.attr("uuid")
	if uuid == "" {
		uuid = root.firstText("uuid")
	}
	name = root.attr("name")
	if name == "" {
		name = root.firstText("name")
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}
	description = root.firstText("description")
	version = root.attr("versionuuid")
	if version == "" {
		version = root.firstText("versionuuid", "version")
	}
	return uuid, name, description, version
}
