// Package logx configures orderdesk's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional alerts sink (WARN+ copied to a separate file, rate limited)
package logx
