// Package schema models the plugin option schema served by the API.
//
// The API describes plugin_options with a JSON Schema document extended
// with a "ui" block (ui.widget selects json-editor, textarea, switch and
// so on). Parse turns the document into a tree of typed nodes, and
// Visitor/Walk let callers handle each variant without type switches of
// their own. TextRenderer prints an option guide for the CLI, and Coerce
// converts key=value strings from flags or the config file into the typed
// values the API expects.
package schema
