// Package preflight provides readiness checks for external services
// and filesystem paths that quill depends on.
//
// These checks run in two contexts:
//   - The transcribe command calls RunAll before starting a job. If any
//     check fails, the run aborts before downloading anything.
//   - The CLI "quill check" command uses individual check functions
//     (CheckGemini, CheckDirectoryAccess, CheckSystemDeps) to display
//     readiness per subsystem.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
