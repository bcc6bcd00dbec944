// Package device drives the external device compiler.
//
// An Invoker builds the compiler argument vector from the profile's device
// flags, a filtered copy of the host compiler arguments and any registered
// include arguments. It runs the compiler against the serialized buffer and,
// on success, swaps the generated metadata header into the host: the
// previous artifact is unloaded, then the new header is declared.
//
// Success and failure are decided by exit status alone. Compiler output is
// captured for logging but never parsed.
package device
