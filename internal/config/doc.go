// Package config loads and resolves cowtree settings.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--db, --b, --theme, --no-color, --debug, --no-sync)
//  2. Environment variables (COWTREE_PATH, COWTREE_B, COWTREE_SYNC,
//     COWTREE_THEME, COWTREE_NO_COLOR, NO_COLOR, COWTREE_DEBUG)
//  3. YAML config file (.cowtree.yaml in the working directory or any parent,
//     then $XDG_CONFIG_HOME/cowtree/.cowtree.yaml)
//  4. Hardcoded defaults
//
// ResolvedConfig records which source supplied each value, which
// `cowtree config` prints.
//
// # Environment Variables
//
//   - COWTREE_NO_COLOR: "true"/"1" disables colors. NO_COLOR disables colors
//     when set to any non-empty value.
//   - COWTREE_DEBUG: any non-empty value other than a false boolean enables
//     debug logging.
package config
