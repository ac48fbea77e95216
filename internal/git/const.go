package git

// Missing is the all-zero object ID. As the old value of a ref update it
// means the ref must not exist yet.
const Missing = "0000000000000000000000000000000000000000"

// The various types of objects in git.
const (
	TypeTree = "tree"
	TypeBlob = "blob"
)

// ShortSha abbreviates an object ID for display.
func ShortSha(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
