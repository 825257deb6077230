package schemata

// The core object kinds every instance carries. Plugins add theirs on
// top via Register.

func init() {
	MustRegister("systemconfig", SystemConfig())
	MustRegister("client", Client())
	MustRegister("profile", Profile())
	MustRegister("user", User())
	MustRegister("logmessage", LogMessage())
	MustRegister("tag", Tag())
	MustRegister("theme", Theme())
}

// SystemConfig is the per-instance configuration object.
func SystemConfig() Definition {
	schema := BaseObject("systemconfig", NoOwner())
	schema.Properties["active"] = Field{
		Type:        "boolean",
		Title:       "Active",
		Description: "Is this the active system configuration",
		Default:     false,
	}
	schema.Properties["hostname"] = Field{
		Type:        "string",
		Title:       "Hostname",
		Description: "Public hostname of this instance",
	}
	schema.Properties["description"] = Field{
		Type:        "string",
		Title:       "Description",
		Description: "Description of this instance",
	}
	return Definition{
		Schema: schema,
		Form:   []string{"name", "hostname", "description", "active"},
	}
}

// Client holds per-device settings of a connected client.
func Client() Definition {
	schema := BaseObject("client")
	schema.Properties["theme"] = UUIDObject("Theme", "Theme used by this client")
	schema.Properties["language"] = LanguageField()
	schema.Properties["autologin"] = Field{
		Type:        "boolean",
		Title:       "Automatic login",
		Description: "Log this client in automatically",
		Default:     false,
	}
	return Definition{
		Schema: schema,
		Form:   []string{"name", "theme", "language", "autologin"},
	}
}

// Profile is the per-user profile with locale and home position.
func Profile() Definition {
	schema := BaseObject("profile", HideOwner())
	schema.Properties["nickname"] = Field{
		Type:        "string",
		Title:       "Nickname",
		Description: "Nick or callsign",
	}
	schema.Properties["language"] = LanguageField()
	schema.Properties["location"] = Coordinate("Home location", "Default coordinate of this profile")
	return Definition{
		Schema: schema,
		Form:   []string{"name", "nickname", "language", "location"},
	}
}

// User is the account object. It has no owner of its own.
func User() Definition {
	schema := BaseObject("user", NoOwner(), NoColor())
	schema.Properties["mail"] = Field{
		Type:        "string",
		Title:       "Mail address",
		Description: "Account mail address",
		Format:      "email",
	}
	schema.Properties["roles"] = Field{
		Type:        "array",
		Title:       "Roles",
		Description: "Roles granted to this account",
		Items:       &Field{Type: "string"},
	}
	schema.Properties["needs_password_change"] = Field{
		Type:        "boolean",
		Title:       "Password change required",
		Description: "Force a password change on next login",
		Default:     false,
	}
	return Definition{
		Schema: schema,
		Form:   []string{"name", "mail", "roles"},
	}
}

// LogMessage is a stored log record.
func LogMessage() Definition {
	schema := BaseObject("logmessage", NoPerms(), NoColor())
	schema.Properties["timestamp"] = Field{
		Type:        "number",
		Title:       "Timestamp",
		Description: "Unix timestamp of the event",
	}
	schema.Properties["emitter"] = Field{
		Type:        "string",
		Title:       "Emitter",
		Description: "Subsystem that emitted the message",
	}
	schema.Properties["level"] = Field{
		Type:        "string",
		Title:       "Level",
		Description: "Severity of the message",
	}
	schema.Properties["message"] = Field{
		Type:        "string",
		Title:       "Message",
		Description: "Logged message",
	}
	return Definition{Schema: schema}
}

// Tag is a free-form label attachable to any object.
func Tag() Definition {
	schema := BaseObject("tag", AllRoles("crew"))
	schema.Properties["description"] = Field{
		Type:        "string",
		Title:       "Description",
		Description: "Description of this tag",
	}
	return Definition{
		Schema: schema,
		Form:   []string{"name", "color", "description"},
	}
}

// Theme is a client display theme.
func Theme() Definition {
	schema := BaseObject("theme", AllRoles("crew"))
	schema.Properties["description"] = Field{
		Type:        "string",
		Title:       "Description",
		Description: "Description of this theme",
	}
	schema.Properties["theme_file"] = Field{
		Type:        "string",
		Title:       "Theme file",
		Description: "Stylesheet providing this theme",
	}
	schema.Properties["notes"] = Field{
		Type:        "string",
		Format:      "html",
		Title:       "User notes",
		Description: "Custom user notes",
	}
	return Definition{
		Schema: schema,
		Form:   []string{"name", "color", "notes"},
	}
}
