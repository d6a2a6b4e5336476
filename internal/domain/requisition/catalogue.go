package requisition

import (
	"fmt"
	"slices"
	"strings"
)

// Department options
const (
	DepartmentHR          = "HR"
	DepartmentFinance     = "Finance"
	DepartmentProcurement = "Procurement"
	DepartmentIT          = "IT"
	DepartmentAdmin       = "Admin"
	DepartmentOperations  = "Operations"
)

// Employee options
const (
	EmployeeAli    = "Ali"
	EmployeeAyesha = "Ayesha"
	EmployeeAhmed  = "Ahmed"
	EmployeeFatima = "Fatima"
	EmployeeUsman  = "Usman"
)

// Requirement options
const (
	RequirementRegular   = "Regular Purchase"
	RequirementEmergency = "Emergency Purchase"
	RequirementOneTime   = "One-time Purchase"
	RequirementBulk      = "Bulk Purchase"
)

// Category options
const (
	CategoryElectronics = "Electronics"
	CategoryFurniture   = "Furniture"
	CategoryStationery  = "Stationery"
	CategoryITEquipment = "IT Equipment"
	CategoryOther       = "Other"
)

// Catalogue holds the selectable values for the enumerated requisition fields.
// A Catalogue is read-only once built; use NewCatalogue to construct one.
type Catalogue struct {
	departments  []string
	employees    []string
	requirements []string
	categories   []string
}

// DefaultCatalogue returns the built-in option sets.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		departments:  []string{DepartmentHR, DepartmentFinance, DepartmentProcurement, DepartmentIT, DepartmentAdmin, DepartmentOperations},
		employees:    []string{EmployeeAli, EmployeeAyesha, EmployeeAhmed, EmployeeFatima, EmployeeUsman},
		requirements: []string{RequirementRegular, RequirementEmergency, RequirementOneTime, RequirementBulk},
		categories:   []string{CategoryElectronics, CategoryFurniture, CategoryStationery, CategoryITEquipment, CategoryOther},
	}
}

// NewCatalogue builds a catalogue from explicit option lists.
// PRE: every list is non-empty with no blank or duplicate entries
// POST: returns a catalogue owning copies of the lists
func NewCatalogue(departments, employees, requirements, categories []string) (Catalogue, error) {
	sets := []struct {
		field  string
		values []string
	}{
		{FieldDepartment, departments},
		{FieldEmployee, employees},
		{FieldRequirement, requirements},
		{FieldCategory, categories},
	}
	for _, s := range sets {
		if len(s.values) == 0 {
			return Catalogue{}, fmt.Errorf("catalogue: %s options are empty", s.field)
		}
		seen := make(map[string]bool, len(s.values))
		for _, v := range s.values {
			v = strings.TrimSpace(v)
			if v == "" {
				return Catalogue{}, fmt.Errorf("catalogue: blank %s option", s.field)
			}
			if seen[v] {
				return Catalogue{}, fmt.Errorf("catalogue: duplicate %s option %q", s.field, v)
			}
			seen[v] = true
		}
	}
	return Catalogue{
		departments:  trimAll(departments),
		employees:    trimAll(employees),
		requirements: trimAll(requirements),
		categories:   trimAll(categories),
	}, nil
}

// Departments returns a copy of the department options.
func (c Catalogue) Departments() []string { return slices.Clone(c.departments) }

// Employees returns a copy of the employee options.
func (c Catalogue) Employees() []string { return slices.Clone(c.employees) }

// Requirements returns a copy of the requirement options.
func (c Catalogue) Requirements() []string { return slices.Clone(c.requirements) }

// Categories returns a copy of the category options.
func (c Catalogue) Categories() []string { return slices.Clone(c.categories) }

// IsZero reports whether the catalogue was never built.
func (c Catalogue) IsZero() bool {
	return len(c.departments) == 0 && len(c.employees) == 0 && len(c.requirements) == 0 && len(c.categories) == 0
}

// options returns the option list for an enumerated field, or nil for free-text fields.
func (c Catalogue) options(field string) []string {
	switch field {
	case FieldDepartment:
		return c.departments
	case FieldEmployee:
		return c.employees
	case FieldRequirement:
		return c.requirements
	case FieldCategory:
		return c.categories
	}
	return nil
}

// Contains reports whether value is a valid option for field.
func (c Catalogue) Contains(field, value string) bool {
	return slices.Contains(c.options(field), value)
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
