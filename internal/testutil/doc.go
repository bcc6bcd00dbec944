// Package testutil provides deterministic stand-ins for the external
// collaborators of the pipeline: the device compiler process, the host
// that installs metadata headers, and the host's transaction handles.
package testutil
