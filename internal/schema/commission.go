// Package schema declares the built-in target schemas.
//
// Registration happens at init time; importing this package for side effects
// makes the schemas available through the core registry.
package schema

import "github.com/sheetbridge/sheetbridge/internal/core"

func init() {
	core.Register(commissionStatement)
	core.Register(policyList)
}

// commissionStatement is the normalized record layout for broker commission
// statements. Field names follow the Dutch terms the downstream systems use.
var commissionStatement = core.SchemaDefinition{
	Info: core.SchemaInfo{
		Key:   "commission_statement",
		Label: "Commission statement",
	},
	FieldSpecs: []core.FieldSpec{
		{Name: "Polisnummer", Type: core.FieldText, Required: true},
		{Name: "Relatienummer", Type: core.FieldText},
		{Name: "Relatienaam", Type: core.FieldText},
		{Name: "Verzekeraar", Type: core.FieldText},
		{Name: "Branche", Type: core.FieldText},
		{Name: "Boekdatum", Type: core.FieldDate},
		{Name: "Polisjaar", Type: core.FieldNumeric},
		{Name: "Bruto", Type: core.FieldNumeric, Required: true},
		{Name: "Netto", Type: core.FieldNumeric},
		{Name: "Provisie", Type: core.FieldNumeric},
		{Name: "Tekencommissie", Type: core.FieldNumeric},
		{Name: "Valuta", Type: core.FieldText},
	},
}

// policyList is the normalized layout for policy inventory exports.
var policyList = core.SchemaDefinition{
	Info: core.SchemaInfo{
		Key:   "policy_list",
		Label: "Policy list",
	},
	FieldSpecs: []core.FieldSpec{
		{Name: "Polisnummer", Type: core.FieldText, Required: true},
		{Name: "Relatienaam", Type: core.FieldText, Required: true},
		{Name: "Verzekeraar", Type: core.FieldText},
		{Name: "Branche", Type: core.FieldText},
		{Name: "Ingangsdatum", Type: core.FieldDate},
		{Name: "Vervaldatum", Type: core.FieldDate},
		{Name: "Premie", Type: core.FieldNumeric},
		{Name: "Status", Type: core.FieldText},
	},
}
