package helpers

// NullIfEmpty returns nil for an empty string so it is stored as NULL.
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
