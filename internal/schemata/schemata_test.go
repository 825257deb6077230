package schemata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ri0t/isomer/internal/errors"
)

func TestEveryDefinitionHasSchemaWithID(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)

	for _, name := range names {
		def, err := Get(name)
		require.NoError(t, err, name)
		require.NotNil(t, def.Schema, name)
		assert.Equal(t, "#"+name, def.Schema.ID)
		assert.Equal(t, name, def.Schema.Name)
		assert.Equal(t, "object", def.Schema.Type)
	}
}

func TestEveryFormFieldExists(t *testing.T) {
	for name, def := range All() {
		for _, field := range def.Form {
			_, ok := def.Schema.Properties[field]
			assert.True(t, ok, "%s: form field %q has no property", name, field)
		}
	}
}

func TestBaseObjectDefaults(t *testing.T) {
	schema := BaseObject("boat")

	assert.Equal(t, "#boat", schema.ID)
	assert.Equal(t, []string{"uuid"}, schema.Required)
	assert.Equal(t, []string{"admin"}, schema.RolesCreate)

	uuid, ok := schema.Properties["uuid"]
	require.True(t, ok)
	assert.True(t, uuid.Hidden)
	assert.Equal(t, UUIDPattern, uuid.Pattern)
	assert.Equal(t, "Unique boat ID", uuid.Title)

	name, ok := schema.Properties["name"]
	require.True(t, ok)
	assert.Equal(t, "Name of boat", name.Description)

	owner, ok := schema.Properties["owner"]
	require.True(t, ok)
	assert.False(t, owner.Hidden)

	perms, ok := schema.Properties["perms"]
	require.True(t, ok)
	assert.Equal(t, []string{"admin", "owner"}, perms.Properties["write"].Default)
	assert.Equal(t, []string{"admin", "owner"}, perms.Properties["read"].Default)
	assert.Equal(t, []string{"admin", "owner"}, perms.Properties["list"].Default)

	_, ok = schema.Properties["color"]
	assert.True(t, ok)
}

func TestBaseObjectAllRoles(t *testing.T) {
	schema := BaseObject("note", AllRoles("crew"))

	assert.Equal(t, []string{"admin", "crew"}, schema.RolesCreate)
	perms := schema.Properties["perms"]
	assert.Equal(t, []string{"admin", "crew", "owner"}, perms.Properties["write"].Default)
	assert.Equal(t, []string{"admin", "crew", "owner"}, perms.Properties["list"].Default)
}

func TestBaseObjectNoOwner(t *testing.T) {
	schema := BaseObject("counter", NoOwner())

	_, ok := schema.Properties["owner"]
	assert.False(t, ok)
	perms := schema.Properties["perms"]
	assert.Equal(t, []string{"admin"}, perms.Properties["write"].Default)
}

func TestBaseObjectNoPerms(t *testing.T) {
	schema := BaseObject("event", NoPerms())

	assert.True(t, schema.NoPerms)
	_, ok := schema.Properties["perms"]
	assert.False(t, ok)
	_, ok = schema.Properties["name"]
	assert.False(t, ok)
	_, ok = schema.Properties["uuid"]
	assert.True(t, ok)
}

func TestBaseObjectHideOwner(t *testing.T) {
	schema := BaseObject("journal", HideOwner())
	assert.True(t, schema.Properties["owner"].Hidden)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	err := Register("tag", Tag())
	require.Error(t, err)
	assert.Equal(t, errors.InvalidSchema, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsMalformed(t *testing.T) {
	err := Register("broken", Definition{})
	require.Error(t, err)
	assert.Equal(t, errors.InvalidSchema, errors.CodeOf(err))

	err = Register("broken", Definition{Schema: &Schema{Name: "broken", Type: "object"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestGetUnknownSchema(t *testing.T) {
	_, err := Get("does-not-exist")
	require.Error(t, err)
	assert.Equal(t, errors.InvalidSchema, errors.CodeOf(err))
}

const validUUID = "0123abcd-4567-89ef-0123-456789abcdef"

func TestValidTagPasses(t *testing.T) {
	def, err := Get("tag")
	require.NoError(t, err)

	obj := map[string]interface{}{
		"uuid":        validUUID,
		"name":        "engine",
		"color":       "#ff0000",
		"description": "Engine room related",
	}
	assert.NoError(t, ValidateObject(def.Schema, obj))
}

func TestBlankObjectFailsOnRequiredOnly(t *testing.T) {
	def, err := Get("tag")
	require.NoError(t, err)

	err = ValidateObject(def.Schema, map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, errors.ObjectInvalid, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "uuid: required field missing")
	assert.NotContains(t, err.Error(), ";", "only the uuid requirement should fail")
}

func TestMalformedUUIDFails(t *testing.T) {
	def, err := Get("tag")
	require.NoError(t, err)

	err = ValidateObject(def.Schema, map[string]interface{}{"uuid": "not-a-uuid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uuid")
	assert.Contains(t, err.Error(), "does not match")
}

func TestUnknownFieldFails(t *testing.T) {
	def, err := Get("tag")
	require.NoError(t, err)

	err = ValidateObject(def.Schema, map[string]interface{}{
		"uuid":    validUUID,
		"flavour": "strawberry",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `flavour: not part of schema "tag"`)
}

func TestCoordinateBounds(t *testing.T) {
	def, err := Get("profile")
	require.NoError(t, err)

	good := map[string]interface{}{
		"uuid":     validUUID,
		"location": map[string]interface{}{"lat": "53.5511", "lon": "9.9937"},
	}
	assert.NoError(t, ValidateObject(def.Schema, good))

	cases := map[string]map[string]interface{}{
		"latitude over 90":   {"lat": "90.1", "lon": "0"},
		"longitude over 180": {"lat": "0", "lon": "180.5"},
		"not numeric":        {"lat": "north", "lon": "0"},
	}
	for name, loc := range cases {
		bad := map[string]interface{}{"uuid": validUUID, "location": loc}
		err := ValidateObject(def.Schema, bad)
		assert.Error(t, err, name)
		assert.Contains(t, err.Error(), "location.l", name)
	}

	edge := map[string]interface{}{
		"uuid":     validUUID,
		"location": map[string]interface{}{"lat": "-90.0", "lon": "+180.0"},
	}
	assert.NoError(t, ValidateObject(def.Schema, edge))
}

func TestLanguageEnum(t *testing.T) {
	def, err := Get("client")
	require.NoError(t, err)

	err = ValidateObject(def.Schema, map[string]interface{}{
		"uuid":     validUUID,
		"language": "tlh",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not one of the allowed values")

	assert.NoError(t, ValidateObject(def.Schema, map[string]interface{}{
		"uuid":     validUUID,
		"language": "de",
	}))
}

func TestTypeMismatches(t *testing.T) {
	def, err := Get("logmessage")
	require.NoError(t, err)

	err = ValidateObject(def.Schema, map[string]interface{}{
		"uuid":      validUUID,
		"timestamp": "yesterday",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp: expected number")

	userDef, err := Get("user")
	require.NoError(t, err)

	err = ValidateObject(userDef.Schema, map[string]interface{}{
		"uuid":  validUUID,
		"roles": []interface{}{"admin", 42},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roles[1]: expected string")
}

func TestIntegerAcceptsWholeFloats(t *testing.T) {
	schema := BaseObject("widget", NoPerms(), NoColor())
	schema.Properties["count"] = Field{Type: "integer"}

	obj := map[string]interface{}{"uuid": validUUID, "count": float64(3)}
	assert.NoError(t, ValidateObject(schema, obj))

	obj["count"] = 3.5
	assert.Error(t, ValidateObject(schema, obj))
}
