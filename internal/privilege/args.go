package privilege

// sudoArgs builds argv for sudo. Everything after "--" belongs to self, so
// sudo does not interpret any of it.
func sudoArgs(self string, args []string) []string {
	return append([]string{"sudo", "--", self}, args...)
}
