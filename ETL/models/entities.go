package models

import (
	"strings"
)

// TableSpec описывает тип таблицы и ее обязательный идентификатор
type TableSpec struct {
	Name           string
	IdentityColumn string
	IsFact         bool
}

// Типы таблиц, поддерживаемые конвейером
var (
	AgentsTable            = TableSpec{Name: "agents", IdentityColumn: "agent_id"}
	ContactCentersTable    = TableSpec{Name: "contact_centers", IdentityColumn: "contact_center_id"}
	ServiceCategoriesTable = TableSpec{Name: "service_categories", IdentityColumn: "category_id"}
	InteractionsTable      = TableSpec{Name: "interactions", IdentityColumn: "interaction_id", IsFact: true}
)

// TableSpecs возвращает все таблицы в порядке обработки: сначала измерения, затем факты
func TableSpecs() []TableSpec {
	return []TableSpec{AgentsTable, ContactCentersTable, ServiceCategoriesTable, InteractionsTable}
}

// Имена столбцов, на которые опирается конвейер
const (
	ColumnAction            = "action"
	ColumnChannel           = "channel"
	ColumnCallDuration      = "call_duration_minutes"
	ColumnContactCenterName = "contact_center_name"
	ColumnDepartment        = "department"
	ColumnTimestamp         = "timestamp"
	ColumnInteractionStart  = "interaction_start"
	ColumnResolution        = "agent_resolution_timestamp"
	ColumnInteractionEnd    = "interaction_end"
)

// TimestampColumns фиксированный набор столбцов с временными метками
var TimestampColumns = []string{
	ColumnTimestamp,
	ColumnInteractionStart,
	ColumnResolution,
	ColumnInteractionEnd,
}

// Столбцы итогового отчета
const (
	ReportTableName              = "support_report"
	ReportColumnMonth            = "month"
	ReportColumnContactCenter    = "contact_center_name"
	ReportColumnDepartment       = "department"
	ReportColumnTotalInteraction = "total_interactions"
	ReportColumnTotalCalls       = "total_calls"
	ReportColumnTotalDuration    = "total_call_duration"
)

// ReportColumns порядок столбцов отчета
var ReportColumns = []string{
	ReportColumnMonth,
	ReportColumnContactCenter,
	ReportColumnDepartment,
	ReportColumnTotalInteraction,
	ReportColumnTotalCalls,
	ReportColumnTotalDuration,
}

// ForeignKey связывает столбец таблицы фактов с измерением
type ForeignKey struct {
	Column    string
	Dimension TableSpec
}

// InteractionForeignKeys внешние ключи таблицы взаимодействий
var InteractionForeignKeys = []ForeignKey{
	{Column: AgentsTable.IdentityColumn, Dimension: AgentsTable},
	{Column: ContactCentersTable.IdentityColumn, Dimension: ContactCentersTable},
	{Column: ServiceCategoriesTable.IdentityColumn, Dimension: ServiceCategoriesTable},
}

// Action действие строки дельты
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction нормализует значение столбца action (регистр, пробелы)
func ParseAction(raw string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return a, true
	default:
		return a, false
	}
}

// DeltaBatch один пакет изменений для таблицы
type DeltaBatch struct {
	Table     TableSpec
	MonthCode string
	Path      string
	Data      *Table
}
