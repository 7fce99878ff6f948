// Package preflight provides readiness checks for the external toolchain
// and filesystem paths a render depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before touching the work directory, so a
//     missing binary or unwritable directory fails fast instead of after
//     minutes of encoding.
//   - The CLI "turntable preflight" command displays the full check list.
//
// Checks never mutate anything; they only report.
package preflight
