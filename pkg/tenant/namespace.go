// Package tenant derives per-tenant namespaces and builds the schema context
// that grounds query synthesis.
package tenant

// NamespacePrefix is prepended to every tenant identifier to form the schema
// name holding that tenant's tables.
const NamespacePrefix = "user_"

// Namespace returns the schema name for a tenant. All generated SQL must stay
// inside this schema.
func Namespace(tenantID string) string {
	return NamespacePrefix + tenantID
}
