package merge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Typed comparison tables hold the structured before/after diff for one
// classified change, one table per object kind that has a dedicated differ.
// Object kinds without one fall to GenericComparison. Every table is unique
// on (session_id, object_id) so re-running persistence cannot duplicate rows.

// InterfaceComparison captures parameter and security-role level changes.
type InterfaceComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_interface_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_interface_cmp_session_object,unique,priority:2" json:"object_id"`

	ParametersAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"parameters_added"`
	ParametersRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"parameters_removed"`
	ParametersModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"parameters_modified"`

	SecurityRolesAdded   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"security_roles_added"`
	SecurityRolesRemoved datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"security_roles_removed"`

	ContentPatch string `gorm:"type:text;not null;default:''" json:"content_patch"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (InterfaceComparison) TableName() string { return "interface_comparison" }

// ProcessModelComparison captures node, flow and process-variable changes.
type ProcessModelComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_pm_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_pm_cmp_session_object,unique,priority:2" json:"object_id"`

	NodesAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"nodes_added"`
	NodesRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"nodes_removed"`
	NodesModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"nodes_modified"`

	FlowsAdded   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"flows_added"`
	FlowsRemoved datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"flows_removed"`

	VariablesAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"variables_added"`
	VariablesRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"variables_removed"`
	VariablesModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"variables_modified"`

	ContentPatch string `gorm:"type:text;not null;default:''" json:"content_patch"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ProcessModelComparison) TableName() string { return "process_model_comparison" }

// RecordTypeComparison captures field and record-action changes.
type RecordTypeComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_rt_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_rt_cmp_session_object,unique,priority:2" json:"object_id"`

	FieldsAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_added"`
	FieldsRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_removed"`
	FieldsModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_modified"`

	ActionsAdded   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"actions_added"`
	ActionsRemoved datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"actions_removed"`

	ContentPatch string `gorm:"type:text;not null;default:''" json:"content_patch"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (RecordTypeComparison) TableName() string { return "record_type_comparison" }

// ExpressionRuleComparison captures rule-input changes and the definition
// diff.
type ExpressionRuleComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_er_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_er_cmp_session_object,unique,priority:2" json:"object_id"`

	InputsAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"inputs_added"`
	InputsRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"inputs_removed"`
	InputsModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"inputs_modified"`

	DefinitionPatch string `gorm:"type:text;not null;default:''" json:"definition_patch"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ExpressionRuleComparison) TableName() string { return "expression_rule_comparison" }

// CDTComparison captures custom-data-type field and namespace changes.
type CDTComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_cdt_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_cdt_cmp_session_object,unique,priority:2" json:"object_id"`

	FieldsAdded    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_added"`
	FieldsRemoved  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_removed"`
	FieldsModified datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"fields_modified"`

	NamespaceBefore string `gorm:"type:text;not null;default:''" json:"namespace_before"`
	NamespaceAfter  string `gorm:"type:text;not null;default:''" json:"namespace_after"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CDTComparison) TableName() string { return "cdt_comparison" }

// ConstantComparison captures value and type before/after.
type ConstantComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_constant_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_constant_cmp_session_object,unique,priority:2" json:"object_id"`

	ValueBefore string `gorm:"type:text;not null;default:''" json:"value_before"`
	ValueAfter  string `gorm:"type:text;not null;default:''" json:"value_after"`
	TypeBefore  string `gorm:"type:text;not null;default:''" json:"type_before"`
	TypeAfter   string `gorm:"type:text;not null;default:''" json:"type_after"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ConstantComparison) TableName() string { return "constant_comparison" }

// GenericComparison is the fallback for object kinds without a dedicated
// differ and for objects whose dedicated differ failed. DetailsAvailable is
// false in the failure case so the UI can say "content differs, details
// unavailable" instead of erroring.
type GenericComparison struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_generic_cmp_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_generic_cmp_session_object,unique,priority:2" json:"object_id"`

	Summary          string `gorm:"type:text;not null;default:''" json:"summary"`
	ContentPatch     string `gorm:"type:text;not null;default:''" json:"content_patch"`
	DetailsAvailable bool   `gorm:"not null;default:true" json:"details_available"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (GenericComparison) TableName() string { return "generic_comparison" }
