package constants

const (
	// TopicKeyPrefix namespaces cached topic ideas in the key-value tier.
	TopicKeyPrefix = "topic:"

	// ScriptKeyPrefix namespaces cached generated scripts in the key-value tier.
	ScriptKeyPrefix = "script:"

	// AuthTokenKeyFormat is formatted with the identity project ref to build the
	// state key holding the auth token blob.
	AuthTokenKeyFormat = "sb-%s-auth-token"
)

// Idea categories, assigned to backend ideas by index modulo len(Categories).
var Categories = []string{
	"Technology",
	"Social Impact",
	"Economic Analysis",
	"Historical",
	"Future Analysis",
}
