// Package schema loads form configs from JSON/YAML documents into a Catalog
// and keeps it current through a watched Holder.
package schema
