// Package schemata defines Isomer object schemata: typed field specs, the
// base object builders, and the registry the object store builds its
// collections from. Plugins contribute their own definitions through
// Register, exactly like the built-in ones in builtins.go.
package schemata

import "fmt"

// UUIDPattern constrains every object reference field.
const UUIDPattern = `^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`

// Field is one property of a schema.
type Field struct {
	Type        string           `yaml:"type" json:"type"`
	Title       string           `yaml:"title,omitempty" json:"title,omitempty"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Pattern     string           `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Format      string           `yaml:"format,omitempty" json:"format,omitempty"`
	Enum        []string         `yaml:"enum,omitempty" json:"enum,omitempty"`
	Default     interface{}      `yaml:"default,omitempty" json:"default,omitempty"`
	Hidden      bool             `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Properties  map[string]Field `yaml:"properties,omitempty" json:"properties,omitempty"`
	Items       *Field           `yaml:"items,omitempty" json:"items,omitempty"`
}

// Schema describes one object kind. ID is "#<name>" by convention.
type Schema struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Type        string           `yaml:"type" json:"type"`
	Properties  map[string]Field `yaml:"properties" json:"properties"`
	Required    []string         `yaml:"required,omitempty" json:"required,omitempty"`
	RolesCreate []string         `yaml:"roles_create,omitempty" json:"roles_create,omitempty"`
	NoPerms     bool             `yaml:"no_perms,omitempty" json:"no_perms,omitempty"`
}

// Definition pairs a schema with its form layout, the unit of registration.
type Definition struct {
	Schema *Schema  `yaml:"schema" json:"schema"`
	Form   []string `yaml:"form,omitempty" json:"form,omitempty"`
}

// Validate checks a definition for registry admission.
func (d Definition) Validate() error {
	if d.Schema == nil {
		return fmt.Errorf("definition has no schema")
	}
	if d.Schema.ID == "" {
		return fmt.Errorf("schema %q has no id", d.Schema.Name)
	}
	if d.Schema.Name == "" {
		return fmt.Errorf("schema %s has no name", d.Schema.ID)
	}
	if d.Schema.Type != "object" {
		return fmt.Errorf("schema %q is a %q, objects only", d.Schema.Name, d.Schema.Type)
	}
	return nil
}

// UUIDObject builds a reference field constrained to the UUID pattern.
func UUIDObject(title, description string) Field {
	if title == "" {
		title = "Reference"
	}
	if description == "" {
		description = "Select an object"
	}
	return Field{
		Type:        "string",
		Pattern:     UUIDPattern,
		Title:       title,
		Description: description,
	}
}

// Coordinate builds a geo coordinate field: latitude and longitude as
// pattern-checked strings.
func Coordinate(title, description string) Field {
	if title == "" {
		title = "Coordinate"
	}
	if description == "" {
		description = "A coordinate"
	}
	return Field{
		Type:        "object",
		Title:       title,
		Description: description,
		Properties: map[string]Field{
			"lat": {
				Type:        "string",
				Pattern:     `^[-+]?([1-8]?\d(\.\d+)?|90(\.0+)?)$`,
				Title:       "Latitude",
				Description: "From 90 Degrees North (+) to South (-)",
			},
			"lon": {
				Type:        "string",
				Pattern:     `^[-+]?(180(\.0+)?|((1[0-7]\d)|([1-9]?\d))(\.\d+)?)$`,
				Title:       "Longitude",
				Description: "From 180 Degrees East (+) to West (-)",
			},
		},
	}
}

// LanguageField builds an enumerated language selector.
func LanguageField() Field {
	return Field{
		Type:        "string",
		Enum:        allLanguages(),
		Title:       "Language",
		Description: "Select a language",
	}
}

func allLanguages() []string {
	return []string{
		"ar", "bg", "cs", "da", "de", "el", "en", "es", "et", "fi", "fr",
		"he", "hi", "hr", "hu", "id", "it", "ja", "ko", "lt", "lv", "nl",
		"no", "pl", "pt", "ro", "ru", "sk", "sl", "sv", "th", "tr", "uk",
		"vi", "zh",
	}
}

// objectSpec collects the BaseObject options.
type objectSpec struct {
	noPerms     bool
	noColor     bool
	hasOwner    bool
	hideOwner   bool
	rolesWrite  []string
	rolesRead   []string
	rolesList   []string
	rolesCreate []string
	allRoles    string
}

// Option adjusts how BaseObject builds a schema.
type Option func(*objectSpec)

// NoPerms drops the RBAC properties entirely.
func NoPerms() Option { return func(s *objectSpec) { s.noPerms = true } }

// NoColor drops the color picker field.
func NoColor() Option { return func(s *objectSpec) { s.noColor = true } }

// NoOwner builds an unowned object: no owner field, no owner role grants.
func NoOwner() Option { return func(s *objectSpec) { s.hasOwner = false } }

// HideOwner keeps the owner field but hides it from forms.
func HideOwner() Option { return func(s *objectSpec) { s.hideOwner = true } }

// AllRoles grants create/write/read/list to admin plus the given role.
func AllRoles(role string) Option { return func(s *objectSpec) { s.allRoles = role } }

// RolesWrite overrides the default write roles.
func RolesWrite(roles ...string) Option { return func(s *objectSpec) { s.rolesWrite = roles } }

// RolesRead overrides the default read roles.
func RolesRead(roles ...string) Option { return func(s *objectSpec) { s.rolesRead = roles } }

// RolesList overrides the default list roles.
func RolesList(roles ...string) Option { return func(s *objectSpec) { s.rolesList = roles } }

// RolesCreate overrides the default create roles.
func RolesCreate(roles ...string) Option { return func(s *objectSpec) { s.rolesCreate = roles } }

// BaseObject builds the standard Isomer object schema: RBAC permissions,
// a name, a color picker and the required uuid field. Options trim or
// adjust the defaults.
func BaseObject(name string, opts ...Option) *Schema {
	spec := objectSpec{hasOwner: true}
	for _, opt := range opts {
		opt(&spec)
	}

	schema := &Schema{
		ID:         "#" + name,
		Name:       name,
		Type:       "object",
		Properties: make(map[string]Field),
	}

	if spec.noPerms {
		schema.NoPerms = true
	} else {
		write, read, list, create := spec.rolesWrite, spec.rolesRead, spec.rolesList, spec.rolesCreate
		if spec.allRoles != "" {
			create = []string{"admin", spec.allRoles}
			write = []string{"admin", spec.allRoles}
			read = []string{"admin", spec.allRoles}
			list = []string{"admin", spec.allRoles}
		} else {
			if write == nil {
				write = []string{"admin"}
			}
			if read == nil {
				read = []string{"admin"}
			}
			if list == nil {
				list = []string{"admin"}
			}
			if create == nil {
				create = []string{"admin"}
			}
		}
		if spec.hasOwner {
			write = append(write, "owner")
			read = append(read, "owner")
			list = append(list, "owner")
		}

		schema.RolesCreate = create
		schema.Properties["perms"] = Field{
			Type:   "object",
			Hidden: true,
			Properties: map[string]Field{
				"write": {Type: "array", Default: write, Items: &Field{Type: "string"}},
				"read":  {Type: "array", Default: read, Items: &Field{Type: "string"}},
				"list":  {Type: "array", Default: list, Items: &Field{Type: "string"}},
			},
		}
		schema.Properties["name"] = Field{
			Type:        "string",
			Description: "Name of " + name,
		}

		if spec.hasOwner {
			owner := UUIDObject("Unique Owner ID", "")
			owner.Hidden = spec.hideOwner
			schema.Properties["owner"] = owner
		}
	}

	if !spec.noColor {
		schema.Properties["color"] = Field{Type: "string", Format: "colorpicker"}
	}

	uuid := UUIDObject("Unique "+name+" ID", "")
	uuid.Hidden = true
	schema.Properties["uuid"] = uuid
	schema.Required = []string{"uuid"}

	return schema
}
