package appian

import "strings"

// ObjectType enumerates the Appian object kinds this system understands.
// Anything unrecognized degrades to TypeUnknown rather than failing.
type ObjectType string

const (
	TypeInterface       ObjectType = "interface"
	TypeProcessModel    ObjectType = "process_model"
	TypeRecordType      ObjectType = "record_type"
	TypeExpressionRule  ObjectType = "expression_rule"
	TypeCDT             ObjectType = "cdt"
	TypeIntegration     ObjectType = "integration"
	TypeWebAPI          ObjectType = "web_api"
	TypeSite            ObjectType = "site"
	TypeGroup           ObjectType = "group"
	TypeConstant        ObjectType = "constant"
	TypeConnectedSystem ObjectType = "connected_system"
	TypeDataStore       ObjectType = "data_store"
	TypeUnknown         ObjectType = "unknown"
)

func (t ObjectType) String() string { return string(t) }

// KnownTypes lists every concrete type, unknown excluded.
func KnownTypes() []ObjectType {
	return []ObjectType{
		TypeInterface, TypeProcessModel, TypeRecordType, TypeExpressionRule,
		TypeCDT, TypeIntegration, TypeWebAPI, TypeSite, TypeGroup,
		TypeConstant, TypeConnectedSystem, TypeDataStore,
	}
}

// dirTypes maps the folder names an Appian export package uses to object
// types. Export layouts vary slightly across Appian versions, so both the
// camelCase and lowercase spellings are listed.
var dirTypes = map[string]ObjectType{
	"interface":       TypeInterface,
	"processmodel":    TypeProcessModel,
	"processmodels":   TypeProcessModel,
	"recordtype":      TypeRecordType,
	"recordtypes":     TypeRecordType,
	"rule":            TypeExpressionRule,
	"rules":           TypeExpressionRule,
	"expressionrule":  TypeExpressionRule,
	"datatype":        TypeCDT,
	"datatypes":       TypeCDT,
	"cdt":             TypeCDT,
	"integration":     TypeIntegration,
	"integrations":    TypeIntegration,
	"webapi":          TypeWebAPI,
	"webapis":         TypeWebAPI,
	"site":            TypeSite,
	"sites":           TypeSite,
	"group":           TypeGroup,
	"groups":          TypeGroup,
	"constant":        TypeConstant,
	"constants":       TypeConstant,
	"connectedsystem": TypeConnectedSystem,
	"datastore":       TypeDataStore,
	"datastores":      TypeDataStore,
}

// rootTypes maps XML root element names to object types, used when the
// directory name is not recognized (objects exported under content/).
var rootTypes = map[string]ObjectType{
	"interfacehaul":       TypeInterface,
	"interface":           TypeInterface,
	"processmodelhaul":    TypeProcessModel,
	"processmodel":        TypeProcessModel,
	"recordtypehaul":      TypeRecordType,
	"recordtype":          TypeRecordType,
	"rulehaul":            TypeExpressionRule,
	"rule":                TypeExpressionRule,
	"expressionrule":      TypeExpressionRule,
	"xsd:schema":          TypeCDT,
	"schema":              TypeCDT,
	"datatype":            TypeCDT,
	"integrationhaul":     TypeIntegration,
	"integration":         TypeIntegration,
	"webapihaul":          TypeWebAPI,
	"webapi":              TypeWebAPI,
	"sitehaul":            TypeSite,
	"site":                TypeSite,
	"grouphaul":           TypeGroup,
	"group":               TypeGroup,
	"constanthaul":        TypeConstant,
	"constant":            TypeConstant,
	"connectedsystemhaul": TypeConnectedSystem,
	"connectedsystem":     TypeConnectedSystem,
	"datastorehaul":       TypeDataStore,
	"datastore":           TypeDataStore,
}

// TypeForDir resolves an export folder name to an object type.
func TypeForDir(dir string) (ObjectType, bool) {
	t, ok := dirTypes[strings.ToLower(strings.TrimSpace(dir))]
	return t, ok
}

// TypeForRoot resolves an XML root element name to an object type.
func TypeForRoot(root string) (ObjectType, bool) {
	t, ok := rootTypes[strings.ToLower(strings.TrimSpace(root))]
	return t, ok
}
