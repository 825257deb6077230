package errors

// Stable error codes. Each code has a documentation page in pages/ and is
// published at <docs base>/Errors/<code>.html. Codes are never recycled;
// retired codes keep their page with a deprecation note.
const (
	// Configuration and environment
	InvalidConfiguration Code = 50000
	InvalidEnvironment   Code = 50001
	NotOverwriting       Code = 50010

	// Object store
	NoDatabase    Code = 50020
	InvalidSchema Code = 50021
	ObjectInvalid Code = 50022

	// Plugin scaffolding
	InvalidPluginName  Code = 50030
	PluginExists       Code = 50031
	TemplateIncomplete Code = 50032

	// Documentation pages
	PageInvalid Code = 50040

	// Plugin installation (raised by generated setup.py, documented here)
	NoSetuptools Code = 50050

	// Provisioning
	ProvisioningFailed Code = 50060
)
